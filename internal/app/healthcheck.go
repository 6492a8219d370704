package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation-engine/internal/api"
)

func (app *Application) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthcheckResponse{
		Status: "UP",
		SystemInfo: api.SystemInfo{
			Version:     version,
			Environment: app.config.Env,
		},
		Reservation: api.ReservationInfo{
			SeatMaps: app.coordinator.SeatMapCount(),
		},
	}

	// the sweeper is absent when the application is built without run
	if app.sweeper != nil {
		stats := app.sweeper.Stats()
		resp.Reservation.ExpiredHolds = stats.TotalExpired

		if !stats.LastScanTime.IsZero() {
			resp.Reservation.LastSweepAt = &stats.LastScanTime
		}
	}

	app.writeResponse(w, r, http.StatusOK, resp)
}
