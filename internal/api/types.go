// Package api holds the JSON request and response bodies of the HTTP surface.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

// SeatUnavailableResponse lists the requested seats that were already claimed.
type SeatUnavailableResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
	SeatIds   []string  `json:"seatIds"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type ReservationInfo struct {
	SeatMaps     int        `json:"seatMaps"`
	ExpiredHolds int64      `json:"expiredHolds"`
	LastSweepAt  *time.Time `json:"lastSweepAt,omitempty"`
}

type HealthcheckResponse struct {
	Status      string          `json:"status"`
	SystemInfo  SystemInfo      `json:"systemInfo"`
	Reservation ReservationInfo `json:"reservation"`
}

type SeatState string

const (
	Free   SeatState = "free"
	Held   SeatState = "held"
	Booked SeatState = "booked"
	Gap    SeatState = "gap"
)

type Seat struct {
	Id     string           `json:"id,omitempty"`
	Column int              `json:"column"`
	Tier   string           `json:"tier,omitempty"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	State  SeatState        `json:"state"`
}

type SeatRow struct {
	Row   string `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapSummary struct {
	Free   int `json:"free"`
	Held   int `json:"held"`
	Booked int `json:"booked"`
}

type SeatMapResponse struct {
	VenueId     string         `json:"venueId"`
	ShowDate    string         `json:"showDate"`
	ShowTime    string         `json:"showTime"`
	VenueClass  string         `json:"venueClass"`
	Version     uint64         `json:"version"`
	Currency    string         `json:"currency"`
	AisleColumn int            `json:"aisleColumn"`
	DividersAt  []int          `json:"dividersAt"`
	SeatRows    []SeatRow      `json:"seatRows"`
	Summary     SeatMapSummary `json:"summary"`
}

type CreateHoldRequest struct {
	VenueId  string   `json:"venueId" validate:"required,max=64"`
	ShowDate string   `json:"showDate" validate:"required,show_date"`
	ShowTime string   `json:"showTime" validate:"required,show_time"`
	SeatIds  []string `json:"seatIds" validate:"required,min=1,dive,seat_id"`
}

type HoldResponse struct {
	HoldId     string          `json:"holdId"`
	VenueId    string          `json:"venueId"`
	ShowDate   string          `json:"showDate"`
	ShowTime   string          `json:"showTime"`
	SeatIds    []string        `json:"seatIds"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Currency   string          `json:"currency"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// ConfirmHoldRequest is optional; an empty body confirms without a client total.
type ConfirmHoldRequest struct {
	TotalPrice *decimal.Decimal `json:"totalPrice,omitempty"`
}

type BookingResponse struct {
	BookingId   string          `json:"bookingId"`
	VenueId     string          `json:"venueId"`
	ShowDate    string          `json:"showDate"`
	ShowTime    string          `json:"showTime"`
	SeatIds     []string        `json:"seatIds"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Currency    string          `json:"currency"`
	ConfirmedAt time.Time       `json:"confirmedAt"`
}

type BookingsResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

type ShowtimeBooking struct {
	BookingResponse
	SubjectId string `json:"subjectId"`
}

type ShowtimeBookingsResponse struct {
	Bookings []ShowtimeBooking `json:"bookings"`
}

type ReleaseHoldResponse struct {
	HoldId string `json:"holdId"`
	Status string `json:"status"`
}

type CheckoutSessionResponse struct {
	RedirectUrl string `json:"redirectUrl"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
