package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/metinatakli/seat-reservation-engine/internal/api"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/jsonutil"
	"github.com/metinatakli/seat-reservation-engine/internal/reservation"
)

func (app *Application) GetSeatMapHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	key := showtimeKeyFromURL(r)

	seatMap, err := app.coordinator.SeatMap(r.Context(), key)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	if app.snapshots != nil {
		cached, err := app.snapshots.Get(r.Context(), key, seatMap.Revision())
		if err == nil {
			jsonutil.WriteRawJSON(w, http.StatusOK, cached, nil)
			return
		}

		if !errors.Is(err, domain.ErrSnapshotCacheMiss) {
			logger.Warn("failed to read seat map snapshot", "showtime", key.String(), "error", err)
		}
	}

	snap := seatMap.Snapshot()

	js, err := json.Marshal(toSeatMapResponse(snap, app.config.Currency))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if app.snapshots != nil {
		err = app.snapshots.Set(r.Context(), key, snap.Revision, js)
		if err != nil {
			logger.Warn("failed to cache seat map snapshot", "showtime", key.String(), "error", err)
		}
	}

	jsonutil.WriteRawJSON(w, http.StatusOK, js, nil)
}

func toSeatMapResponse(snap reservation.Snapshot, currency string) api.SeatMapResponse {
	rows := make([]api.SeatRow, len(snap.Rows))

	for i, row := range snap.Rows {
		seats := make([]api.Seat, len(row.Cells))

		for j, cell := range row.Cells {
			if cell.State == domain.SeatGap {
				seats[j] = api.Seat{Column: cell.Col, State: api.Gap}
				continue
			}

			price := cell.Price
			seats[j] = api.Seat{
				Id:     string(cell.SeatID),
				Column: cell.Col,
				Tier:   string(cell.Tier),
				Price:  &price,
				State:  api.SeatState(cell.State),
			}
		}

		rows[i] = api.SeatRow{Row: row.Label, Seats: seats}
	}

	return api.SeatMapResponse{
		VenueId:     snap.Showtime.VenueID,
		ShowDate:    snap.Showtime.ShowDate,
		ShowTime:    snap.Showtime.ShowTime,
		VenueClass:  string(snap.Class),
		Version:     snap.Version,
		Currency:    currency,
		AisleColumn: snap.AisleColumn,
		DividersAt:  snap.DividersAt,
		SeatRows:    rows,
		Summary: api.SeatMapSummary{
			Free:   snap.Free,
			Held:   snap.Held,
			Booked: snap.Booked,
		},
	}
}
