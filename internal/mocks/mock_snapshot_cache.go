package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) Get(ctx context.Context, key domain.ShowtimeKey, revision string) ([]byte, error) {
	args := m.Called(ctx, key, revision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSnapshotCache) Set(ctx context.Context, key domain.ShowtimeKey, revision string, data []byte) error {
	args := m.Called(ctx, key, revision, data)
	return args.Error(0)
}
