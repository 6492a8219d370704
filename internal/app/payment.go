package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/seat-reservation-engine/internal/api"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/payment"
	"github.com/metinatakli/seat-reservation-engine/internal/reservation"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const maxWebhookBytes = 65_536

func (app *Application) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.contextGetIdentity(r)

	hold, err := app.coordinator.GetHold(r.Context(), chi.URLParam(r, "holdId"), identity.SubjectID)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	seatMap, err := app.coordinator.SeatMap(r.Context(), hold.Showtime)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	seats := make([]payment.CheckoutSeat, 0, len(hold.SeatIDs))
	for _, id := range hold.SeatIDs {
		cell, ok := seatMap.Seat(id)
		if !ok {
			app.serverErrorResponse(w, r, fmt.Errorf("held seat %s is missing from the seat map", id))
			return
		}

		seats = append(seats, payment.CheckoutSeat{SeatID: id, Tier: cell.Tier, Price: cell.Price})
	}

	checkoutSession, err := app.paymentProvider.CreateCheckoutSession(payment.Checkout{
		Hold:  *hold,
		Email: identity.Email,
		Seats: seats,
	})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.CheckoutSessionResponse{
		RedirectUrl: checkoutSession.URL,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// StripeWebhookHandler confirms the hold of a completed checkout session.
// Only a ledger failure is answered with an error status so Stripe retries;
// holds that expired or vanished meanwhile cannot be confirmed by a retry.
func (app *Application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("webhook payload could not be read"))
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), app.config.Stripe.WebhookSecret)
	if err != nil {
		logger.Warn("failed to verify webhook signature", "error", err)
		app.badRequestResponse(w, r, errors.New("invalid webhook signature"))
		return
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		logger.Info("ignored webhook event", "type", event.Type)
		app.writeResponse(w, r, http.StatusOK, api.WebhookResponse{Received: true})
		return
	}

	var checkoutSession stripe.CheckoutSession
	err = json.Unmarshal(event.Data.Raw, &checkoutSession)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("webhook event data could not be parsed"))
		return
	}

	holdID := checkoutSession.Metadata[payment.MetadataHoldID]
	if holdID == "" {
		app.badRequestResponse(w, r, errors.New("checkout session carries no hold"))
		return
	}

	booking, created, err := app.coordinator.Confirm(r.Context(), reservation.ConfirmRequest{
		HoldID:    holdID,
		SubjectID: checkoutSession.Metadata[payment.MetadataSubjectID],
	})

	switch {
	case err == nil && !created:
		logger.Info("paid hold already confirmed", "holdId", holdID, "bookingId", booking.ID, "checkoutSessionId", checkoutSession.ID)
	case err == nil:
		logger.Info("confirmed paid hold", "holdId", holdID, "bookingId", booking.ID, "checkoutSessionId", checkoutSession.ID)
		app.notifications.Dispatch(r.Context(), *booking, checkoutSession.Metadata[payment.MetadataEmail])
	case errors.Is(err, domain.ErrLedgerWriteFailed):
		app.reservationErrorResponse(w, r, err)
		return
	default:
		// the charge stands; refunds are issued from the Stripe dashboard
		logger.Error("paid hold could not be confirmed",
			"holdId", holdID,
			"checkoutSessionId", checkoutSession.ID,
			"paymentIntentId", paymentIntentID(checkoutSession),
			"refundRequired", true,
			"error", err,
		)
	}

	app.writeResponse(w, r, http.StatusOK, api.WebhookResponse{Received: true})
}

func paymentIntentID(session stripe.CheckoutSession) string {
	if session.PaymentIntent == nil {
		return ""
	}

	return session.PaymentIntent.ID
}
