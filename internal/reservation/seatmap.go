package reservation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/layout"
	"github.com/shopspring/decimal"
)

type seatSlot struct {
	state     domain.SeatState
	holdID    string
	bookingID string
}

// SeatMap tracks the occupancy of every seat of one showtime. Reads are
// exported; all state transitions go through the Coordinator, which owns the
// lock for the duration of each operation.
type SeatMap struct {
	mu sync.Mutex

	key   domain.ShowtimeKey
	grid  *layout.Grid
	seats map[domain.SeatID]*seatSlot

	holds     map[string]*domain.Hold
	confirmed map[string]*domain.Booking
	expired   map[string]expiredHold

	// epoch is fresh for every materialization; version counts mutations
	// within it.
	epoch   string
	version uint64
	evicted bool
}

// expiredHold remembers whose hold lapsed so only the owner learns it expired.
type expiredHold struct {
	subjectID string
	at        time.Time
}

func newSeatMap(key domain.ShowtimeKey, grid *layout.Grid) *SeatMap {
	sm := &SeatMap{
		key:       key,
		grid:      grid,
		seats:     make(map[domain.SeatID]*seatSlot, grid.SeatCount),
		holds:     make(map[string]*domain.Hold),
		confirmed: make(map[string]*domain.Booking),
		expired:   make(map[string]expiredHold),
		epoch:     uuid.NewString(),
	}

	for _, row := range grid.Cells {
		for _, cell := range row {
			if !cell.Gap {
				sm.seats[cell.SeatID] = &seatSlot{state: domain.SeatFree}
			}
		}
	}

	return sm
}

func (sm *SeatMap) Key() domain.ShowtimeKey {
	return sm.key
}

// Get returns the state of a seat. Gap cells report SeatGap.
func (sm *SeatMap) Get(id domain.SeatID) (domain.SeatState, error) {
	cell, ok := sm.grid.Lookup(id)
	if !ok {
		return "", fmt.Errorf("seat %s: %w", id, domain.ErrRecordNotFound)
	}

	if cell.Gap {
		return domain.SeatGap, nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.seats[id].state, nil
}

// Seat returns the immutable layout cell of a sellable seat.
func (sm *SeatMap) Seat(id domain.SeatID) (layout.Cell, bool) {
	return sm.grid.Seat(id)
}

func (sm *SeatMap) Version() uint64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.version
}

// Revision identifies the current state across materializations. Two equal
// revisions always describe the same seat states.
func (sm *SeatMap) Revision() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.revisionLocked()
}

func (sm *SeatMap) revisionLocked() string {
	return fmt.Sprintf("%s.v%d", sm.epoch, sm.version)
}

// SnapshotCell is a read-only view of one grid coordinate.
type SnapshotCell struct {
	SeatID domain.SeatID
	Col    int
	Tier   domain.Tier
	Price  decimal.Decimal
	State  domain.SeatState
}

type SnapshotRow struct {
	Label string
	Cells []SnapshotCell
}

// Snapshot is a copy of the Seat Map at one version, safe to hand to renderers.
type Snapshot struct {
	Showtime    domain.ShowtimeKey
	Class       domain.VenueClass
	Version     uint64
	Revision    string
	AisleColumn int
	DividersAt  []int
	Rows        []SnapshotRow
	Free        int
	Held        int
	Booked      int
}

func (sm *SeatMap) Snapshot() Snapshot {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	snap := Snapshot{
		Showtime:    sm.key,
		Class:       sm.grid.Class,
		Version:     sm.version,
		Revision:    sm.revisionLocked(),
		AisleColumn: sm.grid.AisleColumn,
		DividersAt:  append([]int(nil), sm.grid.DividersAt...),
		Rows:        make([]SnapshotRow, len(sm.grid.Cells)),
	}

	for i, row := range sm.grid.Cells {
		cells := make([]SnapshotCell, len(row))

		for j, cell := range row {
			if cell.Gap {
				cells[j] = SnapshotCell{Col: cell.Col, State: domain.SeatGap}
				continue
			}

			state := sm.seats[cell.SeatID].state
			switch state {
			case domain.SeatFree:
				snap.Free++
			case domain.SeatHeld:
				snap.Held++
			case domain.SeatBooked:
				snap.Booked++
			}

			cells[j] = SnapshotCell{
				SeatID: cell.SeatID,
				Col:    cell.Col,
				Tier:   cell.Tier,
				Price:  cell.Price,
				State:  state,
			}
		}

		snap.Rows[i] = SnapshotRow{Label: sm.grid.RowLabels[i], Cells: cells}
	}

	return snap
}

// The methods below require sm.mu to be held.

func (sm *SeatMap) unavailableLocked(ids []domain.SeatID) []domain.SeatID {
	var taken []domain.SeatID

	for _, id := range ids {
		if sm.seats[id].state != domain.SeatFree {
			taken = append(taken, id)
		}
	}

	return taken
}

func (sm *SeatMap) holdLocked(hold *domain.Hold) {
	for _, id := range hold.SeatIDs {
		slot := sm.seats[id]
		slot.state = domain.SeatHeld
		slot.holdID = hold.ID
	}

	sm.holds[hold.ID] = hold
	sm.version++
}

func (sm *SeatMap) releaseLocked(hold *domain.Hold) {
	for _, id := range hold.SeatIDs {
		slot := sm.seats[id]
		if slot.state == domain.SeatHeld && slot.holdID == hold.ID {
			slot.state = domain.SeatFree
			slot.holdID = ""
		}
	}

	delete(sm.holds, hold.ID)
	sm.version++
}

func (sm *SeatMap) bookLocked(hold *domain.Hold, bookingID string) {
	for _, id := range hold.SeatIDs {
		slot := sm.seats[id]
		slot.state = domain.SeatBooked
		slot.bookingID = bookingID
	}

	sm.version++
}

// unbookLocked rolls a failed confirmation back to Held, keeping the hold.
func (sm *SeatMap) unbookLocked(hold *domain.Hold) {
	for _, id := range hold.SeatIDs {
		slot := sm.seats[id]
		slot.state = domain.SeatHeld
		slot.bookingID = ""
	}

	sm.version++
}

func (sm *SeatMap) finalizeLocked(hold *domain.Hold, booking *domain.Booking) {
	delete(sm.holds, hold.ID)
	sm.confirmed[hold.ID] = booking
}

// restoreBooked marks the seats of a ledger booking Booked. Callers outside
// materialization bump the version themselves.
func (sm *SeatMap) restoreBooked(booking domain.Booking) {
	for _, id := range booking.SeatIDs {
		if slot, ok := sm.seats[id]; ok {
			slot.state = domain.SeatBooked
			slot.bookingID = booking.ID
		}
	}
}

func (sm *SeatMap) priceLocked(ids []domain.SeatID) decimal.Decimal {
	total := decimal.Zero

	for _, id := range ids {
		cell, _ := sm.grid.Seat(id)
		total = total.Add(cell.Price)
	}

	return total
}
