package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
)

// MemoryBookingLedger keeps bookings in process memory. It is used when no
// database is configured and in tests.
type MemoryBookingLedger struct {
	mu       sync.RWMutex
	bookings []domain.Booking
	byID     map[string]int
	// showtime + seat -> booking id, the same uniqueness the database enforces
	seats map[string]string
}

func NewMemoryBookingLedger() *MemoryBookingLedger {
	return &MemoryBookingLedger{
		byID:  make(map[string]int),
		seats: make(map[string]string),
	}
}

func (m *MemoryBookingLedger) Append(ctx context.Context, booking domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[booking.ID]; ok {
		return domain.ErrDuplicateBooking
	}

	var taken []domain.SeatID
	for _, id := range booking.SeatIDs {
		if _, ok := m.seats[seatKey(booking.Showtime(), id)]; ok {
			taken = append(taken, id)
		}
	}

	if len(taken) > 0 {
		return &domain.SeatUnavailableError{SeatIDs: taken}
	}

	for _, id := range booking.SeatIDs {
		m.seats[seatKey(booking.Showtime(), id)] = booking.ID
	}

	booking.SeatIDs = slices.Clone(booking.SeatIDs)
	m.byID[booking.ID] = len(m.bookings)
	m.bookings = append(m.bookings, booking)

	return nil
}

func seatKey(key domain.ShowtimeKey, id domain.SeatID) string {
	return key.String() + "/" + string(id)
}

func (m *MemoryBookingLedger) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[bookingID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	booking := m.bookings[i]
	booking.SeatIDs = slices.Clone(booking.SeatIDs)

	return &booking, nil
}

func (m *MemoryBookingLedger) ListBySubject(ctx context.Context, subjectID string) ([]domain.Booking, error) {
	return m.list(func(b domain.Booking) bool { return b.SubjectID == subjectID }), nil
}

func (m *MemoryBookingLedger) ListBySeatMap(ctx context.Context, key domain.ShowtimeKey) ([]domain.Booking, error) {
	return m.list(func(b domain.Booking) bool { return b.Showtime() == key }), nil
}

// list returns matching bookings, most recent first.
func (m *MemoryBookingLedger) list(match func(domain.Booking) bool) []domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.Booking, 0)
	for i := len(m.bookings) - 1; i >= 0; i-- {
		if b := m.bookings[i]; match(b) {
			b.SeatIDs = slices.Clone(b.SeatIDs)
			result = append(result, b)
		}
	}

	slices.SortStableFunc(result, func(a, b domain.Booking) int {
		return b.ConfirmedAt.Compare(a.ConfirmedAt)
	})

	return result
}

type MemorySeedStore struct {
	mu    sync.Mutex
	seeds map[domain.ShowtimeKey]int64
}

func NewMemorySeedStore() *MemorySeedStore {
	return &MemorySeedStore{
		seeds: make(map[domain.ShowtimeKey]int64),
	}
}

func (m *MemorySeedStore) GetOrCreate(
	ctx context.Context,
	key domain.ShowtimeKey,
	class domain.VenueClass,
	candidate int64) (int64, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if seed, ok := m.seeds[key]; ok {
		return seed, nil
	}

	m.seeds[key] = candidate

	return candidate, nil
}
