package app

import (
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string
	Currency         string
	// Venues maps venue ids to classes, e.g. "imax=large,pvr=mid".
	Venues      string
	JWTSecret   string
	DB          DBConfig
	Redis       RedisConfig
	SMTP        SMTPConfig
	Stripe      StripeConfig
	AMQP        AMQPConfig
	Reservation ReservationConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessUrl    string
	FailureUrl    string
}

type AMQPConfig struct {
	URL string
}

type ReservationConfig struct {
	HoldTTL          time.Duration
	LedgerTimeout    time.Duration
	SweepInterval    time.Duration
	MaxSeatsPerHold  int
	TimeZone         string
	SnapshotCacheTTL time.Duration
	NotifyTimeout    time.Duration
}

// parseConfig reads flags from args. Every flag defaults from the
// environment, so values loaded from a .env file apply unless overridden.
func parseConfig(args []string) (Config, bool, error) {
	var cfg Config

	fs := flag.NewFlagSet("api", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	fs.StringVar(&cfg.Env, "env", envString("ENV", "dev"), "Environment (dev|staging|prod)")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")
	fs.StringVar(&cfg.Currency, "currency", envString("CURRENCY", "inr"), "Currency of every price")
	fs.StringVar(&cfg.Venues, "venues", envString("VENUES", "imax=large,pvr=mid,studio=boutique"), "Venue catalog as id=class pairs")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", envString("JWT_SECRET", ""), "HMAC secret of bearer tokens")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.Redis.URL, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	fs.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", ""), "SMTP host")
	fs.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	fs.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "Seats <no-reply@seats.example.com>"), "SMTP sender")

	fs.StringVar(&cfg.Stripe.SecretKey, "stripe-key", envString("STRIPE_KEY", ""), "Stripe secret key")
	fs.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", envString("STRIPE_WEBHOOK_SECRET", ""), "Stripe webhook secret")
	fs.StringVar(&cfg.Stripe.SuccessUrl, "stripe-success-url", envString("STRIPE_SUCCESS_URL", "https://example.com/success.html"), "Stripe payment success page")
	fs.StringVar(&cfg.Stripe.FailureUrl, "stripe-failure-url", envString("STRIPE_FAILURE_URL", "https://example.com/failure.html"), "Stripe payment failure page")

	fs.StringVar(&cfg.AMQP.URL, "amqp-url", envString("AMQP_URL", ""), "RabbitMQ URL for booking events")

	fs.DurationVar(&cfg.Reservation.HoldTTL, "hold-ttl", envDuration("HOLD_TTL", 10*time.Minute), "Lifetime of a seat hold")
	fs.DurationVar(&cfg.Reservation.LedgerTimeout, "ledger-timeout", envDuration("LEDGER_TIMEOUT", 3*time.Second), "Timeout of a booking ledger write")
	fs.DurationVar(&cfg.Reservation.SweepInterval, "sweep-interval", envDuration("SWEEP_INTERVAL", 30*time.Second), "Interval of the expired hold sweeper")
	fs.IntVar(&cfg.Reservation.MaxSeatsPerHold, "max-seats-per-hold", envInt("MAX_SEATS_PER_HOLD", 10), "Maximum seats in one hold")
	fs.StringVar(&cfg.Reservation.TimeZone, "time-zone", envString("TIME_ZONE", "UTC"), "Time zone of show dates and times")
	fs.DurationVar(&cfg.Reservation.SnapshotCacheTTL, "snapshot-cache-ttl", envDuration("SNAPSHOT_CACHE_TTL", time.Minute), "Lifetime of cached seat map snapshots")
	fs.DurationVar(&cfg.Reservation.NotifyTimeout, "notify-timeout", envDuration("NOTIFY_TIMEOUT", 10*time.Second), "Timeout of one booking notification")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, false, err
	}

	return cfg, *displayVersion, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}
