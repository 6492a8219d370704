package notify

import (
	"context"
	"strings"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/mailer"
)

const bookingConfirmedTemplate = "booking_confirmed.tmpl"

// MailNotifier sends a receipt to the subject's address.
type MailNotifier struct {
	mailer   mailer.Mailer
	currency string
}

func NewMailNotifier(m mailer.Mailer, currency string) *MailNotifier {
	return &MailNotifier{
		mailer:   m,
		currency: strings.ToUpper(currency),
	}
}

func (n *MailNotifier) BookingConfirmed(ctx context.Context, booking domain.Booking, recipient string) error {
	if recipient == "" {
		return nil
	}

	data := map[string]any{
		"BookingID": booking.ID,
		"VenueID":   booking.VenueID,
		"ShowDate":  booking.ShowDate,
		"ShowTime":  booking.ShowTime,
		"Seats":     strings.Join(domain.SeatIDStrings(booking.SeatIDs), ", "),
		"Total":     booking.TotalPrice.StringFixed(2),
		"Currency":  n.currency,
	}

	return n.mailer.Send(recipient, bookingConfirmedTemplate, data)
}
