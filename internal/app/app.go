package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/layout"
	"github.com/metinatakli/seat-reservation-engine/internal/mailer"
	"github.com/metinatakli/seat-reservation-engine/internal/notify"
	"github.com/metinatakli/seat-reservation-engine/internal/payment"
	"github.com/metinatakli/seat-reservation-engine/internal/repository"
	"github.com/metinatakli/seat-reservation-engine/internal/reservation"
	appvalidator "github.com/metinatakli/seat-reservation-engine/internal/validator"
	"github.com/metinatakli/seat-reservation-engine/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"golang.org/x/sync/errgroup"
)

const serviceName = "seat-reservation-api"

var (
	version = vcs.Version()
)

// SnapshotCache stores encoded seat map responses per seat map revision.
type SnapshotCache interface {
	Get(ctx context.Context, key domain.ShowtimeKey, revision string) ([]byte, error)
	Set(ctx context.Context, key domain.ShowtimeKey, revision string, data []byte) error
}

type PaymentProvider interface {
	CreateCheckoutSession(checkout payment.Checkout) (*stripe.CheckoutSession, error)
}

type Application struct {
	config    Config
	logger    *slog.Logger
	validator *validator.Validate

	coordinator   *reservation.Coordinator
	sweeper       *reservation.Sweeper
	ledger        domain.BookingLedger
	notifications *notify.Dispatcher

	// optional, nil when not configured
	snapshots       SnapshotCache
	paymentProvider PaymentProvider
}

func Run() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, displayVersion, err := parseConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	textHandler := slog.NewTextHandler(os.Stdout, nil)
	logger := slog.New(textHandler)

	shutdownTelemetry, err := initTelemetry(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(textHandler, otelslog.NewHandler(serviceName)))
	}

	app, cleanup, err := New(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return app.run()
}

// New wires the application from cfg. Collaborators whose configuration is
// empty are left out: bookings fall back to memory without a DSN, snapshots
// are not cached without Redis, and notifiers and payments are disabled.
// The returned cleanup releases every connection New opened.
func New(cfg Config, logger *slog.Logger) (*Application, func(), error) {
	var closers []func()

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	fail := func(err error) (*Application, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if cfg.JWTSecret == "" {
		return fail(errors.New("jwt secret must be provided"))
	}

	err := layout.ValidateClasses()
	if err != nil {
		return fail(err)
	}

	catalog, err := repository.ParseVenueCatalog(cfg.Venues)
	if err != nil {
		return fail(err)
	}

	app := &Application{
		config:    cfg,
		logger:    logger,
		validator: appvalidator.NewValidator(),
	}

	var seeds domain.SeedStore

	if cfg.DB.DSN != "" {
		db, err := newDatabasePool(cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db.Close)

		app.ledger = repository.NewPostgresBookingLedger(db)
		seeds = repository.NewPostgresSeedStore(db)
	} else {
		logger.Warn("database DSN not set, bookings are kept in memory")

		app.ledger = repository.NewMemoryBookingLedger()
		seeds = repository.NewMemorySeedStore()
	}

	if cfg.Redis.URL != "" {
		redisClient, err := newRedisClient(cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { redisClient.Close() })

		app.snapshots = repository.NewRedisSnapshotCache(redisClient, cfg.Reservation.SnapshotCacheTTL)
	}

	loc, err := time.LoadLocation(cfg.Reservation.TimeZone)
	if err != nil {
		return fail(fmt.Errorf("invalid time zone %q: %w", cfg.Reservation.TimeZone, err))
	}

	app.coordinator, err = reservation.NewCoordinator(
		reservation.Config{
			HoldTTL:         cfg.Reservation.HoldTTL,
			LedgerTimeout:   cfg.Reservation.LedgerTimeout,
			MaxSeatsPerHold: cfg.Reservation.MaxSeatsPerHold,
			Location:        loc,
		},
		reservation.NewRegistry(catalog, seeds, app.ledger),
		app.ledger,
		reservation.WithLogger(logger),
	)
	if err != nil {
		return fail(err)
	}

	var notifiers []domain.BookingNotifier

	if cfg.SMTP.Host != "" {
		smtpMailer := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
		notifiers = append(notifiers, notify.NewMailNotifier(smtpMailer, cfg.Currency))
	}

	if cfg.AMQP.URL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQP.URL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { amqpNotifier.Close() })

		notifiers = append(notifiers, amqpNotifier)
	}

	if cfg.Stripe.SecretKey != "" {
		stripe.Key = cfg.Stripe.SecretKey
		app.paymentProvider = payment.NewStripePaymentProvider(cfg.Stripe.FailureUrl, cfg.Stripe.SuccessUrl, cfg.Currency)
	}

	app.sweeper = reservation.NewSweeper(app.coordinator, reservation.SweeperConfig{Interval: cfg.Reservation.SweepInterval}, logger)
	app.notifications = notify.NewDispatcher(logger, cfg.Reservation.NotifyTimeout, notifiers...)

	return app, cleanup, nil
}

// Sweeper exposes the expiry sweeper so callers can drive it without run.
func (app *Application) Sweeper() *reservation.Sweeper {
	return app.sweeper
}

func newRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, err
	}

	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// run serves HTTP and sweeps expired holds until SIGINT or SIGTERM.
func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.sweeper.Run(gctx)
	})

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server", "addr", srv.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	app.notifications.Wait()

	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
