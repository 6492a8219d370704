package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
)

type MockVenueCatalog struct {
	VenueClassFunc func(ctx context.Context, venueID string) (domain.VenueClass, error)
}

func (m *MockVenueCatalog) VenueClass(ctx context.Context, venueID string) (domain.VenueClass, error) {
	return m.VenueClassFunc(ctx, venueID)
}

type MockSeedStore struct {
	GetOrCreateFunc func(ctx context.Context, key domain.ShowtimeKey, class domain.VenueClass, candidate int64) (int64, error)
}

func (m *MockSeedStore) GetOrCreate(
	ctx context.Context,
	key domain.ShowtimeKey,
	class domain.VenueClass,
	candidate int64) (int64, error) {

	return m.GetOrCreateFunc(ctx, key, class, candidate)
}
