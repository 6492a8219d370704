package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var bookingNamespace = uuid.MustParse("6f1c54a4-1b57-4d51-9a55-0f0e8e0f6b1d")

type Booking struct {
	ID          string
	SubjectID   string
	VenueID     string
	ShowDate    string
	ShowTime    string
	SeatIDs     []SeatID
	TotalPrice  decimal.Decimal
	ConfirmedAt time.Time
}

func (b Booking) Showtime() ShowtimeKey {
	return ShowtimeKey{VenueID: b.VenueID, ShowDate: b.ShowDate, ShowTime: b.ShowTime}
}

// BookingIDForHold derives the booking id a hold confirms into. The derivation
// is stable so a repeated confirm can never append a second booking.
func BookingIDForHold(holdID string) string {
	return uuid.NewSHA1(bookingNamespace, []byte(holdID)).String()
}

// BookingLedger is the append-only record of confirmed bookings.
type BookingLedger interface {
	Append(ctx context.Context, booking Booking) error
	Get(ctx context.Context, bookingID string) (*Booking, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Booking, error)
	ListBySeatMap(ctx context.Context, key ShowtimeKey) ([]Booking, error)
}

// BookingNotifier delivers a finalized booking to a downstream collaborator.
type BookingNotifier interface {
	BookingConfirmed(ctx context.Context, booking Booking, recipient string) error
}
