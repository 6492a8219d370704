package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hold is a time-bounded claim on a set of free seats of one Seat Map.
type Hold struct {
	ID         string
	SubjectID  string
	Showtime   ShowtimeKey
	SeatIDs    []SeatID
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

func (h *Hold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}
