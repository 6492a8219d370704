package mocks

import (
	"github.com/metinatakli/seat-reservation-engine/internal/payment"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
)

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCheckoutSession(checkout payment.Checkout) (*stripe.CheckoutSession, error) {
	args := m.Called(checkout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}
