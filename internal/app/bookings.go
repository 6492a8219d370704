package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/seat-reservation-engine/internal/api"
)

// GetSubjectBookingsHandler lists the caller's own bookings, most recent first.
func (app *Application) GetSubjectBookingsHandler(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectId")

	if subjectID != app.contextGetIdentity(r).SubjectID {
		app.forbiddenResponse(w, r)
		return
	}

	bookings, err := app.ledger.ListBySubject(r.Context(), subjectID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingsResponse{
		Bookings: make([]api.BookingResponse, len(bookings)),
	}

	for i, booking := range bookings {
		resp.Bookings[i] = app.toBookingResponse(booking)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetShowtimeBookingsHandler(w http.ResponseWriter, r *http.Request) {
	key := showtimeKeyFromURL(r)

	err := key.Validate()
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	bookings, err := app.ledger.ListBySeatMap(r.Context(), key)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.ShowtimeBookingsResponse{
		Bookings: make([]api.ShowtimeBooking, len(bookings)),
	}

	for i, booking := range bookings {
		resp.Bookings[i] = api.ShowtimeBooking{
			BookingResponse: app.toBookingResponse(booking),
			SubjectId:       booking.SubjectID,
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
