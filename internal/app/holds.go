package app

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/seat-reservation-engine/internal/api"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/jsonutil"
	"github.com/metinatakli/seat-reservation-engine/internal/reservation"
)

func (app *Application) CreateHoldHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CreateHoldRequest

	if !app.decodeRequest(w, r, &input) {
		return
	}

	err := app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	seatIDs := make([]domain.SeatID, len(input.SeatIds))
	for i, id := range input.SeatIds {
		seatIDs[i] = domain.SeatID(id)
	}

	hold, err := app.coordinator.Hold(r.Context(), reservation.HoldRequest{
		SubjectID: app.contextGetIdentity(r).SubjectID,
		Showtime: domain.ShowtimeKey{
			VenueID:  input.VenueId,
			ShowDate: input.ShowDate,
			ShowTime: input.ShowTime,
		},
		SeatIDs: seatIDs,
	})
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, app.toHoldResponse(hold), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ConfirmHoldHandler accepts an empty body or one carrying the total the
// client expects to pay.
func (app *Application) ConfirmHoldHandler(w http.ResponseWriter, r *http.Request) {
	var input api.ConfirmHoldRequest

	if r.ContentLength > 0 && !app.decodeRequest(w, r, &input) {
		return
	}

	identity := app.contextGetIdentity(r)

	booking, created, err := app.coordinator.Confirm(r.Context(), reservation.ConfirmRequest{
		HoldID:      chi.URLParam(r, "holdId"),
		SubjectID:   identity.SubjectID,
		ClientTotal: input.TotalPrice,
	})
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	if created {
		app.notifications.Dispatch(r.Context(), *booking, identity.Email)
	}

	err = app.writeJSON(w, http.StatusOK, app.toBookingResponse(*booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ReleaseHoldHandler(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "holdId")

	err := app.coordinator.Release(r.Context(), holdID, app.contextGetIdentity(r).SubjectID)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	resp := api.ReleaseHoldResponse{
		HoldId: holdID,
		Status: "released",
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// decodeRequest reads a JSON body and writes the error response itself.
func (app *Application) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := app.readJSON(w, r, dst)
	if err == nil {
		return true
	}

	var malformed *jsonutil.MalformedError
	if errors.As(err, &malformed) {
		app.badRequestResponse(w, r, err)
	} else {
		app.serverErrorResponse(w, r, err)
	}

	return false
}

func (app *Application) toHoldResponse(hold *domain.Hold) api.HoldResponse {
	return api.HoldResponse{
		HoldId:     hold.ID,
		VenueId:    hold.Showtime.VenueID,
		ShowDate:   hold.Showtime.ShowDate,
		ShowTime:   hold.Showtime.ShowTime,
		SeatIds:    domain.SeatIDStrings(hold.SeatIDs),
		TotalPrice: hold.TotalPrice,
		Currency:   app.config.Currency,
		ExpiresAt:  hold.ExpiresAt,
	}
}

func (app *Application) toBookingResponse(booking domain.Booking) api.BookingResponse {
	return api.BookingResponse{
		BookingId:   booking.ID,
		VenueId:     booking.VenueID,
		ShowDate:    booking.ShowDate,
		ShowTime:    booking.ShowTime,
		SeatIds:     domain.SeatIDStrings(booking.SeatIDs),
		TotalPrice:  booking.TotalPrice,
		Currency:    app.config.Currency,
		ConfirmedAt: booking.ConfirmedAt,
	}
}
