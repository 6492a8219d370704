package reservation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrSweeperRunning = errors.New("sweeper already running")

type SweeperConfig struct {
	Interval time.Duration
}

func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{Interval: 30 * time.Second}
}

// Sweeper periodically releases expired holds and evicts Seat Maps of
// showtimes that have started.
type Sweeper struct {
	coordinator *Coordinator
	cfg         SweeperConfig
	logger      *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	totalExpired     int64
	totalEvicted     int64
	lastScanTime     time.Time
	lastExpiredCount int
}

type SweeperStats struct {
	IsRunning        bool
	TotalExpired     int64
	TotalEvicted     int64
	LastScanTime     time.Time
	LastExpiredCount int
}

func NewSweeper(coordinator *Coordinator, cfg SweeperConfig, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg = DefaultSweeperConfig()
	}

	return &Sweeper{
		coordinator: coordinator,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSweeperRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.logger.Info("starting hold sweeper", "interval", s.cfg.Interval.String())

	s.wg.Add(1)
	go s.loop(ctx)

	return nil
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("stopped hold sweeper")
}

// Run starts the sweeper and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	s.Stop()

	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one scan over every materialized Seat Map.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.coordinator.now()

	expired := s.coordinator.ExpireHolds(ctx, now)
	evicted := s.coordinator.EvictFinished(now)

	s.mu.Lock()
	s.lastScanTime = now
	s.lastExpiredCount = expired
	s.totalExpired += int64(expired)
	s.totalEvicted += int64(evicted)
	s.mu.Unlock()

	if expired > 0 || evicted > 0 {
		s.logger.InfoContext(ctx, "swept seat maps", "expiredHolds", expired, "evictedSeatMaps", evicted)
	}
}

func (s *Sweeper) Stats() SweeperStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SweeperStats{
		IsRunning:        s.running,
		TotalExpired:     s.totalExpired,
		TotalEvicted:     s.totalEvicted,
		LastScanTime:     s.lastScanTime,
		LastExpiredCount: s.lastExpiredCount,
	}
}
