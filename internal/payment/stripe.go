package payment

import (
	"fmt"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

const (
	MetadataHoldID    = "hold_id"
	MetadataSubjectID = "subject_id"
	MetadataEmail     = "email"
)

type CheckoutSeat struct {
	SeatID domain.SeatID
	Tier   domain.Tier
	Price  decimal.Decimal
}

// Checkout is everything needed to charge for one hold.
type Checkout struct {
	Hold  domain.Hold
	Email string
	Seats []CheckoutSeat
}

type StripePaymentProvider struct {
	failureUrl string
	successUrl string
	currency   string
	newSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewStripePaymentProvider(failureUrl, successUrl, currency string) *StripePaymentProvider {
	return &StripePaymentProvider{
		failureUrl: failureUrl,
		successUrl: successUrl,
		currency:   currency,
		newSession: session.New,
	}
}

func (s *StripePaymentProvider) CreateCheckoutSession(checkout Checkout) (*stripe.CheckoutSession, error) {
	return s.newSession(s.checkoutParams(checkout))
}

func (s *StripePaymentProvider) checkoutParams(checkout Checkout) *stripe.CheckoutSessionParams {
	hold := checkout.Hold
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(checkout.Seats))

	for _, seat := range checkout.Seats {
		priceCents := seat.Price.Mul(decimal.NewFromInt(100)).IntPart()

		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.currency),
				UnitAmount: stripe.Int64(priceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("Seat %s", seat.SeatID)),
					Description: stripe.String(fmt.Sprintf(
						"Venue: %s • Show: %s %s • Tier: %s",
						hold.Showtime.VenueID,
						hold.Showtime.ShowDate,
						hold.Showtime.ShowTime,
						seat.Tier,
					)),
				},
			},
			Quantity: stripe.Int64(1),
		}

		lineItems = append(lineItems, lineItem)
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl),
		CancelURL:  stripe.String(s.failureUrl),
		Metadata: map[string]string{
			MetadataHoldID:    hold.ID,
			MetadataSubjectID: hold.SubjectID,
			MetadataEmail:     checkout.Email,
		},
		ClientReferenceID: stripe.String(hold.ID),
	}

	if checkout.Email != "" {
		params.CustomerEmail = stripe.String(checkout.Email)
	}

	return params
}
