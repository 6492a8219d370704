package domain

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
	TierLuxury   Tier = "luxury"
)

type SeatState string

const (
	SeatFree   SeatState = "free"
	SeatHeld   SeatState = "held"
	SeatBooked SeatState = "booked"
	SeatGap    SeatState = "gap"
)

// SeatID is the label of a seat inside one venue grid: the row label followed by
// the 1-based column, e.g. "C4".
type SeatID string

var seatIDRgx = regexp.MustCompile(`^([A-Z]+)([1-9][0-9]*)$`)

// ParseSeatID splits a seat label into its row label and column.
func ParseSeatID(s string) (row string, col int, err error) {
	m := seatIDRgx.FindStringSubmatch(s)
	if m == nil {
		return "", 0, fmt.Errorf("malformed seat id %q", s)
	}

	col, err = strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("malformed seat column %q: %w", s, err)
	}

	return m[1], col, nil
}

func NewSeatID(rowLabel string, col int) SeatID {
	return SeatID(rowLabel + strconv.Itoa(col))
}

// RowLabel returns the label of the zero-based row index: A..Z, AA, AB, ...
func RowLabel(index int) string {
	var buf []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}

	return string(buf)
}

type Seat struct {
	ID    SeatID
	Row   int
	Col   int
	Tier  Tier
	Price decimal.Decimal
	State SeatState
}

func SeatIDStrings(ids []SeatID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}

	return out
}
