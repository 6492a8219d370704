package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
)

// Dispatcher delivers confirmed bookings to every notifier in the background.
// Failures are logged; they never affect the booking.
type Dispatcher struct {
	notifiers []domain.BookingNotifier
	timeout   time.Duration
	logger    *slog.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(logger *slog.Logger, timeout time.Duration, notifiers ...domain.BookingNotifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Dispatch returns immediately. ctx only contributes its values.
func (d *Dispatcher) Dispatch(ctx context.Context, booking domain.Booking, recipient string) {
	if len(d.notifiers) == 0 {
		return
	}

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.Notify(ctx, booking, recipient); err != nil {
			d.logger.ErrorContext(ctx, "failed to deliver booking notification", "bookingId", booking.ID, "error", err)
		}
	}()
}

// Notify runs every notifier and joins their errors.
func (d *Dispatcher) Notify(ctx context.Context, booking domain.Booking, recipient string) error {
	var errs []error

	for _, n := range d.notifiers {
		if err := n.BookingConfirmed(ctx, booking, recipient); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrNotificationFailed, errors.Join(errs...))
	}

	return nil
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
