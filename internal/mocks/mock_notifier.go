package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingNotifier struct {
	mock.Mock
}

func (m *MockBookingNotifier) BookingConfirmed(ctx context.Context, booking domain.Booking, recipient string) error {
	args := m.Called(ctx, booking, recipient)
	return args.Error(0)
}
