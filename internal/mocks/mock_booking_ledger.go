package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingLedger struct {
	mock.Mock
	domain.BookingLedger
}

func (m *MockBookingLedger) Append(ctx context.Context, booking domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingLedger) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingLedger) ListBySubject(ctx context.Context, subjectID string) ([]domain.Booking, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingLedger) ListBySeatMap(ctx context.Context, key domain.ShowtimeKey) ([]domain.Booking, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
