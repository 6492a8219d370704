package reservation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/layout"
	"golang.org/x/sync/singleflight"
)

// Registry owns the materialized Seat Maps. A map is built on first access from
// the venue class, the persisted seed and the ledger's bookings for the showtime.
type Registry struct {
	catalog domain.VenueCatalog
	seeds   domain.SeedStore
	ledger  domain.BookingLedger
	newSeed func() int64

	mu    sync.RWMutex
	maps  map[domain.ShowtimeKey]*SeatMap
	group singleflight.Group
}

func NewRegistry(catalog domain.VenueCatalog, seeds domain.SeedStore, ledger domain.BookingLedger) *Registry {
	return &Registry{
		catalog: catalog,
		seeds:   seeds,
		ledger:  ledger,
		newSeed: rand.Int64,
		maps:    make(map[domain.ShowtimeKey]*SeatMap),
	}
}

// Get returns the Seat Map of a showtime, materializing it if needed.
// Concurrent first accesses share one materialization.
func (r *Registry) Get(ctx context.Context, key domain.ShowtimeKey) (*SeatMap, error) {
	if sm, ok := r.Lookup(key); ok {
		return sm, nil
	}

	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		if sm, ok := r.Lookup(key); ok {
			return sm, nil
		}

		sm, err := r.materialize(ctx, key)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.maps[key] = sm
		r.mu.Unlock()

		return sm, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*SeatMap), nil
}

// Lookup returns an already materialized Seat Map.
func (r *Registry) Lookup(key domain.ShowtimeKey) (*SeatMap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sm, ok := r.maps[key]
	return sm, ok
}

// Each calls fn for every materialized Seat Map. fn runs outside the registry lock.
func (r *Registry) Each(fn func(*SeatMap)) {
	r.mu.RLock()
	maps := make([]*SeatMap, 0, len(r.maps))
	for _, sm := range r.maps {
		maps = append(maps, sm)
	}
	r.mu.RUnlock()

	for _, sm := range maps {
		fn(sm)
	}
}

func (r *Registry) Evict(key domain.ShowtimeKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.maps, key)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.maps)
}

func (r *Registry) materialize(ctx context.Context, key domain.ShowtimeKey) (*SeatMap, error) {
	class, err := r.catalog.VenueClass(ctx, key.VenueID)
	if err != nil {
		return nil, fmt.Errorf("resolve venue %s: %w", key.VenueID, err)
	}

	seed, err := r.seeds.GetOrCreate(ctx, key, class, r.newSeed())
	if err != nil {
		return nil, fmt.Errorf("seat map seed %s: %w", key, err)
	}

	grid, err := layout.Generate(class, seed)
	if err != nil {
		return nil, fmt.Errorf("generate seat map %s: %w", key, err)
	}

	bookings, err := r.ledger.ListBySeatMap(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("replay bookings %s: %w", key, err)
	}

	sm := newSeatMap(key, grid)
	for _, booking := range bookings {
		sm.restoreBooked(booking)
	}

	return sm, nil
}
