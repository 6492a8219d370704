package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	appmiddleware "github.com/metinatakli/seat-reservation-engine/internal/middleware"
	"github.com/riandyrn/otelchi"
)

const showtimePath = "/venues/{venueId}/showtimes/{showDate}/{showTime}"

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(appmiddleware.NotFoundHandler)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(appmiddleware.RequestLogger(app.logger))
	r.Use(appmiddleware.RecoverPanic(app.logger))

	r.Get("/healthcheck", app.GetHealth)
	r.Get(showtimePath+"/seat-map", app.GetSeatMapHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.requireAuthentication)

		r.Post("/holds", app.CreateHoldHandler)
		r.Post("/holds/{holdId}/confirm", app.ConfirmHoldHandler)
		r.Post("/holds/{holdId}/release", app.ReleaseHoldHandler)

		if app.paymentProvider != nil {
			r.Post("/holds/{holdId}/checkout", app.CreateCheckoutSessionHandler)
		}

		r.Get("/subjects/{subjectId}/bookings", app.GetSubjectBookingsHandler)

		r.With(app.requireRole(RoleAdmin)).Get(showtimePath+"/bookings", app.GetShowtimeBookingsHandler)
	})

	if app.config.Stripe.WebhookSecret != "" {
		r.Post("/webhook", app.StripeWebhookHandler)
	}

	return r
}
