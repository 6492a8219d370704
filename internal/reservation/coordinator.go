package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/metinatakli/seat-reservation-engine/internal/reservation"

type Config struct {
	HoldTTL         time.Duration
	LedgerTimeout   time.Duration
	MaxSeatsPerHold int
	// Location is the time zone show dates and times are expressed in.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		HoldTTL:         10 * time.Minute,
		LedgerTimeout:   3 * time.Second,
		MaxSeatsPerHold: 10,
		Location:        time.UTC,
	}
}

type HoldRequest struct {
	SubjectID string
	Showtime  domain.ShowtimeKey
	SeatIDs   []domain.SeatID
}

type ConfirmRequest struct {
	HoldID    string
	SubjectID string
	// ClientTotal is what the client believes it pays. It never affects the
	// booking; a mismatch is only logged.
	ClientTotal *decimal.Decimal
}

// Coordinator is the only component that mutates Seat Maps. Every mutation of
// one map runs under that map's lock, so operations on different showtimes
// never block each other.
type Coordinator struct {
	cfg      Config
	registry *Registry
	ledger   domain.BookingLedger
	logger   *slog.Logger
	metrics  *metrics

	now   func() time.Time
	newID func() string

	// holdID -> ShowtimeKey for every hold still known in memory
	index sync.Map
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) {
		c.newID = newID
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func NewCoordinator(cfg Config, registry *Registry, ledger domain.BookingLedger, opts ...Option) (*Coordinator, error) {
	if cfg.HoldTTL <= 0 {
		return nil, fmt.Errorf("hold ttl must be positive, got %s", cfg.HoldTTL)
	}

	if cfg.LedgerTimeout <= 0 {
		return nil, fmt.Errorf("ledger timeout must be positive, got %s", cfg.LedgerTimeout)
	}

	if cfg.MaxSeatsPerHold < 1 {
		return nil, fmt.Errorf("max seats per hold must be at least 1, got %d", cfg.MaxSeatsPerHold)
	}

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		cfg:      cfg,
		registry: registry,
		ledger:   ledger,
		logger:   slog.Default(),
		metrics:  m,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SeatMap returns the materialized Seat Map of a showtime for reads.
func (c *Coordinator) SeatMap(ctx context.Context, key domain.ShowtimeKey) (*SeatMap, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	sm, err := c.registry.Get(ctx, key)
	if err != nil {
		return nil, venueError(err)
	}

	return sm, nil
}

// SeatMapCount reports how many Seat Maps are materialized.
func (c *Coordinator) SeatMapCount() int {
	return c.registry.Len()
}

// Hold claims every requested seat or none of them.
func (c *Coordinator) Hold(ctx context.Context, req HoldRequest) (*domain.Hold, error) {
	if err := c.validateHold(req); err != nil {
		c.metrics.hold(ctx, "invalid")
		return nil, err
	}

	sm, err := c.lockSeatMap(ctx, req.Showtime)
	if err != nil {
		c.metrics.hold(ctx, "invalid")
		return nil, err
	}
	defer sm.mu.Unlock()

	if err := validateSeats(sm, req.SeatIDs); err != nil {
		c.metrics.hold(ctx, "invalid")
		return nil, err
	}

	now := c.now()
	c.reclaimExpiredLocked(ctx, sm, req.SeatIDs, now)

	if taken := sm.unavailableLocked(req.SeatIDs); len(taken) > 0 {
		c.metrics.hold(ctx, "unavailable")
		return nil, &domain.SeatUnavailableError{SeatIDs: taken}
	}

	hold := &domain.Hold{
		ID:         c.newID(),
		SubjectID:  req.SubjectID,
		Showtime:   req.Showtime,
		SeatIDs:    append([]domain.SeatID(nil), req.SeatIDs...),
		TotalPrice: sm.priceLocked(req.SeatIDs),
		CreatedAt:  now,
		ExpiresAt:  now.Add(c.cfg.HoldTTL),
	}

	sm.holdLocked(hold)
	c.index.Store(hold.ID, req.Showtime)
	c.metrics.hold(ctx, "ok")

	copied := *hold
	return &copied, nil
}

// GetHold returns an active hold owned by subjectID.
func (c *Coordinator) GetHold(ctx context.Context, holdID, subjectID string) (*domain.Hold, error) {
	sm, ok := c.lockHoldSeatMap(holdID)
	if !ok {
		return nil, domain.ErrHoldNotFound
	}
	defer sm.mu.Unlock()

	if lapsed, ok := sm.expired[holdID]; ok {
		if lapsed.subjectID != subjectID {
			return nil, domain.ErrHoldNotFound
		}

		return nil, domain.ErrHoldExpired
	}

	hold, ok := sm.holds[holdID]
	if !ok || hold.SubjectID != subjectID {
		return nil, domain.ErrHoldNotFound
	}

	if now := c.now(); hold.Expired(now) {
		c.expireLocked(ctx, sm, hold, now)
		return nil, domain.ErrHoldExpired
	}

	copied := *hold
	return &copied, nil
}

// Release returns the seats of a hold to Free. Holds of other subjects are
// reported as not found.
func (c *Coordinator) Release(ctx context.Context, holdID, subjectID string) error {
	sm, ok := c.lockHoldSeatMap(holdID)
	if !ok {
		return domain.ErrHoldNotFound
	}
	defer sm.mu.Unlock()

	hold, ok := sm.holds[holdID]
	if !ok || hold.SubjectID != subjectID {
		return domain.ErrHoldNotFound
	}

	c.releaseLocked(ctx, sm, hold, "released")

	return nil
}

// Confirm turns a hold into a booking. Confirming the same hold again returns
// the booking it already produced; created reports whether this call recorded
// it, so side effects of a booking run once.
func (c *Coordinator) Confirm(ctx context.Context, req ConfirmRequest) (booking *domain.Booking, created bool, err error) {
	sm, ok := c.lockHoldSeatMap(req.HoldID)
	if !ok {
		booking, err := c.confirmedFromLedger(ctx, req)
		return booking, false, err
	}
	defer sm.mu.Unlock()

	if booking, ok := sm.confirmed[req.HoldID]; ok {
		if booking.SubjectID != req.SubjectID {
			return nil, false, domain.ErrHoldNotFound
		}

		c.metrics.confirmation(ctx, "replayed")
		copied := *booking
		return &copied, false, nil
	}

	if lapsed, ok := sm.expired[req.HoldID]; ok {
		if lapsed.subjectID != req.SubjectID {
			c.metrics.confirmation(ctx, "not_found")
			return nil, false, domain.ErrHoldNotFound
		}

		c.metrics.confirmation(ctx, "expired")
		return nil, false, domain.ErrHoldExpired
	}

	hold, ok := sm.holds[req.HoldID]
	if !ok || hold.SubjectID != req.SubjectID {
		c.metrics.confirmation(ctx, "not_found")
		return nil, false, domain.ErrHoldNotFound
	}

	now := c.now()
	if hold.Expired(now) {
		c.expireLocked(ctx, sm, hold, now)
		c.metrics.confirmation(ctx, "expired")
		return nil, false, domain.ErrHoldExpired
	}

	total := sm.priceLocked(hold.SeatIDs)
	if req.ClientTotal != nil && !req.ClientTotal.Equal(total) {
		c.logger.WarnContext(ctx, "client total does not match computed total",
			"holdId", hold.ID, "clientTotal", req.ClientTotal.String(), "total", total.String())
	}

	pending := domain.Booking{
		ID:          domain.BookingIDForHold(hold.ID),
		SubjectID:   hold.SubjectID,
		VenueID:     hold.Showtime.VenueID,
		ShowDate:    hold.Showtime.ShowDate,
		ShowTime:    hold.Showtime.ShowTime,
		SeatIDs:     append([]domain.SeatID(nil), hold.SeatIDs...),
		TotalPrice:  total,
		ConfirmedAt: now,
	}

	sm.bookLocked(hold, pending.ID)

	recorded, created, err := c.appendBooking(ctx, pending)
	if err != nil {
		sm.unbookLocked(hold)

		var unavailable *domain.SeatUnavailableError
		if errors.As(err, &unavailable) {
			c.metrics.confirmation(ctx, "seat_conflict")
			return nil, false, c.resolveSeatConflictLocked(ctx, sm, hold)
		}

		c.metrics.confirmation(ctx, "ledger_failed")
		c.logger.ErrorContext(ctx, "failed to append booking", "holdId", hold.ID, "bookingId", pending.ID, "error", err)

		return nil, false, fmt.Errorf("%w: %w", domain.ErrLedgerWriteFailed, err)
	}

	sm.finalizeLocked(hold, recorded)
	c.metrics.confirmation(ctx, "ok")

	copied := *recorded
	return &copied, created, nil
}

// resolveSeatConflictLocked handles a ledger that already books some seats of
// hold, for example when an earlier append committed after its caller timed
// out. The hold is released, the ledger's bookings are replayed onto the map
// and the caller learns which of its seats are taken.
func (c *Coordinator) resolveSeatConflictLocked(ctx context.Context, sm *SeatMap, hold *domain.Hold) error {
	c.releaseLocked(ctx, sm, hold, "seat_conflict")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.LedgerTimeout)
	defer cancel()

	bookings, err := c.ledger.ListBySeatMap(ctx, sm.key)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to replay bookings after seat conflict", "holdId", hold.ID, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrLedgerWriteFailed, err)
	}

	for _, booking := range bookings {
		sm.restoreBooked(booking)
	}
	sm.version++

	taken := sm.unavailableLocked(hold.SeatIDs)
	if len(taken) == 0 {
		taken = append([]domain.SeatID(nil), hold.SeatIDs...)
	}

	c.logger.WarnContext(ctx, "ledger already books seats of hold", "holdId", hold.ID, "seatIds", domain.SeatIDStrings(taken))

	return &domain.SeatUnavailableError{SeatIDs: taken}
}

// ExpireHolds releases every hold whose expiry is before now and returns how
// many were released.
func (c *Coordinator) ExpireHolds(ctx context.Context, now time.Time) int {
	released := 0

	c.registry.Each(func(sm *SeatMap) {
		sm.mu.Lock()
		defer sm.mu.Unlock()

		for _, hold := range sm.holds {
			if hold.ExpiresAt.Before(now) {
				c.expireLocked(ctx, sm, hold, now)
				released++
			}
		}

		for holdID, lapsed := range sm.expired {
			if now.Sub(lapsed.at) > c.cfg.HoldTTL {
				delete(sm.expired, holdID)
				c.index.Delete(holdID)
			}
		}
	})

	return released
}

// EvictFinished drops Seat Maps whose showtime has started and that carry no
// active holds. Bookings stay in the ledger; a later read rematerializes them.
func (c *Coordinator) EvictFinished(now time.Time) int {
	evicted := 0

	c.registry.Each(func(sm *SeatMap) {
		start, err := sm.key.StartsAt(c.cfg.Location)
		if err != nil || !start.Before(now) {
			return
		}

		sm.mu.Lock()
		defer sm.mu.Unlock()

		if len(sm.holds) > 0 {
			return
		}

		for holdID := range sm.confirmed {
			c.index.Delete(holdID)
		}
		for holdID := range sm.expired {
			c.index.Delete(holdID)
		}

		sm.evicted = true
		c.registry.Evict(sm.key)
		evicted++
	})

	return evicted
}

func (c *Coordinator) validateHold(req HoldRequest) error {
	if req.SubjectID == "" {
		return domain.NewValidationError("subjectId", "must be provided")
	}

	if err := req.Showtime.Validate(); err != nil {
		return err
	}

	if len(req.SeatIDs) == 0 {
		return domain.NewValidationError("seatIds", "must contain at least one seat")
	}

	if len(req.SeatIDs) > c.cfg.MaxSeatsPerHold {
		return domain.NewValidationError("seatIds", "must not contain more than %d seats", c.cfg.MaxSeatsPerHold)
	}

	seen := make(map[domain.SeatID]struct{}, len(req.SeatIDs))
	for _, id := range req.SeatIDs {
		if _, ok := seen[id]; ok {
			return domain.NewValidationError("seatIds", "contain %s more than once", id)
		}
		seen[id] = struct{}{}
	}

	start, err := req.Showtime.StartsAt(c.cfg.Location)
	if err != nil {
		return domain.NewValidationError("showTime", "is not a valid time")
	}

	if !start.After(c.now()) {
		return domain.NewValidationError("showTime", "has already started")
	}

	return nil
}

func validateSeats(sm *SeatMap, ids []domain.SeatID) error {
	for _, id := range ids {
		cell, ok := sm.grid.Lookup(id)
		if !ok {
			return domain.NewValidationError("seatIds", "%s does not exist in this venue", id)
		}

		if cell.Gap {
			return domain.NewValidationError("seatIds", "%s is not a seat", id)
		}
	}

	return nil
}

func venueError(err error) error {
	if errors.Is(err, domain.ErrUnknownVenue) {
		return &domain.ValidationError{Field: "venueId", Issue: "is not a known venue", Err: err}
	}

	return err
}

// lockSeatMap returns the locked Seat Map of key, retrying if the map was
// evicted between lookup and lock.
func (c *Coordinator) lockSeatMap(ctx context.Context, key domain.ShowtimeKey) (*SeatMap, error) {
	for {
		sm, err := c.registry.Get(ctx, key)
		if err != nil {
			return nil, venueError(err)
		}

		sm.mu.Lock()
		if !sm.evicted {
			return sm, nil
		}
		sm.mu.Unlock()
	}
}

func (c *Coordinator) lockHoldSeatMap(holdID string) (*SeatMap, bool) {
	v, ok := c.index.Load(holdID)
	if !ok {
		return nil, false
	}

	sm, ok := c.registry.Lookup(v.(domain.ShowtimeKey))
	if !ok {
		return nil, false
	}

	sm.mu.Lock()
	if sm.evicted {
		sm.mu.Unlock()
		return nil, false
	}

	return sm, true
}

// reclaimExpiredLocked releases expired holds that still cover any of ids, so
// a new hold does not wait for the next sweep.
func (c *Coordinator) reclaimExpiredLocked(ctx context.Context, sm *SeatMap, ids []domain.SeatID, now time.Time) {
	for _, id := range ids {
		slot := sm.seats[id]
		if slot.state != domain.SeatHeld {
			continue
		}

		if hold, ok := sm.holds[slot.holdID]; ok && hold.Expired(now) {
			c.expireLocked(ctx, sm, hold, now)
		}
	}
}

func (c *Coordinator) releaseLocked(ctx context.Context, sm *SeatMap, hold *domain.Hold, reason string) {
	sm.releaseLocked(hold)
	c.index.Delete(hold.ID)
	c.metrics.release(ctx, reason)
}

// expireLocked is release triggered by time. The hold id is remembered so a late
// confirm reports HoldExpired rather than HoldNotFound.
func (c *Coordinator) expireLocked(ctx context.Context, sm *SeatMap, hold *domain.Hold, now time.Time) {
	c.releaseLocked(ctx, sm, hold, "expired")
	sm.expired[hold.ID] = expiredHold{subjectID: hold.SubjectID, at: now}
	c.index.Store(hold.ID, sm.key)
}

// appendBooking writes the booking with a bounded timeout that the caller's
// cancellation does not cut short. A duplicate means an earlier attempt for
// this hold committed but was reported as failed, so the stored booking is
// returned as created; nothing acted on it yet.
func (c *Coordinator) appendBooking(ctx context.Context, booking domain.Booking) (*domain.Booking, bool, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.LedgerTimeout)
	defer cancel()

	err := c.ledger.Append(ctx, booking)
	if err == nil {
		return &booking, true, nil
	}

	if !errors.Is(err, domain.ErrDuplicateBooking) {
		return nil, false, err
	}

	existing, getErr := c.ledger.Get(ctx, booking.ID)
	if getErr != nil {
		return nil, false, errors.Join(err, getErr)
	}

	return existing, true, nil
}

// confirmedFromLedger answers a confirm for a hold this process no longer knows,
// typically after a restart.
func (c *Coordinator) confirmedFromLedger(ctx context.Context, req ConfirmRequest) (*domain.Booking, error) {
	booking, err := c.ledger.Get(ctx, domain.BookingIDForHold(req.HoldID))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.metrics.confirmation(ctx, "not_found")
			return nil, domain.ErrHoldNotFound
		}

		return nil, err
	}

	if booking.SubjectID != req.SubjectID {
		c.metrics.confirmation(ctx, "not_found")
		return nil, domain.ErrHoldNotFound
	}

	c.metrics.confirmation(ctx, "replayed")
	return booking, nil
}

type metrics struct {
	holds         metric.Int64Counter
	confirmations metric.Int64Counter
	releases      metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(instrumentationName)

	holds, err := meter.Int64Counter("reservation.holds", metric.WithDescription("Hold requests by outcome"))
	if err != nil {
		return nil, err
	}

	confirmations, err := meter.Int64Counter("reservation.confirmations", metric.WithDescription("Confirm requests by outcome"))
	if err != nil {
		return nil, err
	}

	releases, err := meter.Int64Counter("reservation.releases", metric.WithDescription("Released holds by reason"))
	if err != nil {
		return nil, err
	}

	return &metrics{holds: holds, confirmations: confirmations, releases: releases}, nil
}

func (m *metrics) hold(ctx context.Context, outcome string) {
	m.holds.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) confirmation(ctx context.Context, outcome string) {
	m.confirmations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) release(ctx context.Context, reason string) {
	m.releases.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
