package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/jsonutil"
	appmiddleware "github.com/metinatakli/seat-reservation-engine/internal/middleware"
)

type contextKey string

const identityContextKey = contextKey("identity")

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	return jsonutil.WriteJSON(w, status, data, headers)
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return jsonutil.ReadJSON(w, r, dst)
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	return appmiddleware.LoggerFrom(r.Context(), app.logger)
}

func contextSetIdentity(r *http.Request, identity *Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, identity)
	return r.WithContext(ctx)
}

// contextGetIdentity panics when called outside requireAuthentication.
func (app *Application) contextGetIdentity(r *http.Request) *Identity {
	identity, ok := r.Context().Value(identityContextKey).(*Identity)
	if !ok {
		panic("missing identity value in request context")
	}

	return identity
}

func showtimeKeyFromURL(r *http.Request) domain.ShowtimeKey {
	return domain.ShowtimeKey{
		VenueID:  chi.URLParam(r, "venueId"),
		ShowDate: chi.URLParam(r, "showDate"),
		ShowTime: chi.URLParam(r, "showTime"),
	}
}
