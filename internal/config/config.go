package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// PaymentMode selects how payment sessions settle. Resolved once at
// startup and passed into the orchestrator; core logic never reads the
// process environment.
type PaymentMode string

const (
	// PaymentModeSimulated settles payments instantly inside checkout.
	// Exists for demo/end-to-end testing without a live gateway.
	PaymentModeSimulated PaymentMode = "simulated"
	// PaymentModeLive creates real gateway sessions and waits for the
	// confirmation callback.
	PaymentModeLive PaymentMode = "live"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	RedisAddr          string
	KafkaBrokers       []string
	OutboxTopic        string
	PaymentMode        PaymentMode
	PaymentGatewayURL  string
	SweepSecret        string
	SweepAuthDisabled  bool
	ReservationTTL     time.Duration
	SweepInterval      time.Duration
	OutboxPollInterval time.Duration
	WorkerPoolSize     int
	MaxSweepBatch      int
	MaxOutboxBatch     int
	ShutdownTimeout    time.Duration
}

const (
	defaultRunAddress         = ":8080"
	defaultOutboxTopic        = "atelier.order.events"
	defaultReservationTTL     = 15 * time.Minute
	defaultSweepInterval      = 15 * time.Minute
	defaultOutboxPollInterval = 3 * time.Second
	defaultWorkerPoolSize     = 4
	defaultMaxSweepBatch      = 128
	defaultMaxOutboxBatch     = 32
	defaultShutdownTimeout    = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		RedisAddr:          getString(lookup, "REDIS_ADDR", ""),
		KafkaBrokers:       splitCSV(getString(lookup, "KAFKA_BROKERS", "")),
		OutboxTopic:        getString(lookup, "OUTBOX_TOPIC", defaultOutboxTopic),
		PaymentMode:        PaymentMode(getString(lookup, "PAYMENT_MODE", string(PaymentModeSimulated))),
		PaymentGatewayURL:  getString(lookup, "PAYMENT_GATEWAY_ADDRESS", ""),
		SweepSecret:        getString(lookup, "SWEEP_SECRET", ""),
		SweepAuthDisabled:  getBool(lookup, "SWEEP_AUTH_DISABLED", false),
		ReservationTTL:     getDuration(lookup, "RESERVATION_TTL", defaultReservationTTL),
		SweepInterval:      getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		OutboxPollInterval: getDuration(lookup, "OUTBOX_POLL_INTERVAL", defaultOutboxPollInterval),
		WorkerPoolSize:     getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		MaxSweepBatch:      getInt(lookup, "SWEEP_BATCH_SIZE", defaultMaxSweepBatch),
		MaxOutboxBatch:     getInt(lookup, "OUTBOX_BATCH_SIZE", defaultMaxOutboxBatch),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("atelier", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		paymentModeStr     = string(cfg.PaymentMode)
		kafkaBrokersStr    = strings.Join(cfg.KafkaBrokers, ",")
		reservationTTLStr  = cfg.ReservationTTL.String()
		sweepIntervalStr   = cfg.SweepInterval.String()
		outboxPollStr      = cfg.OutboxPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for distributed rate limiting (optional)")
	fs.StringVar(&kafkaBrokersStr, "kafka-brokers", kafkaBrokersStr, "Kafka brokers for outbox delivery (optional, CSV)")
	fs.StringVar(&cfg.OutboxTopic, "outbox-topic", cfg.OutboxTopic, "Kafka topic for outbox events")
	fs.StringVar(&paymentModeStr, "payment-mode", paymentModeStr, "Payment settlement mode: simulated or live")
	fs.StringVar(&cfg.PaymentGatewayURL, "payment-gateway", cfg.PaymentGatewayURL, "Payment gateway base URL")
	fs.StringVar(&cfg.SweepSecret, "sweep-secret", cfg.SweepSecret, "Shared secret for the sweep trigger endpoint")
	fs.BoolVar(&cfg.SweepAuthDisabled, "sweep-auth-disabled", cfg.SweepAuthDisabled, "Disable sweep endpoint auth (development only)")
	fs.StringVar(&reservationTTLStr, "reservation-ttl", reservationTTLStr, "How long a checkout hold lasts")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between expiry sweeps")
	fs.StringVar(&outboxPollStr, "outbox-poll", outboxPollStr, "Interval between outbox polls")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent outbox workers")
	fs.IntVar(&cfg.MaxSweepBatch, "sweep-batch", cfg.MaxSweepBatch, "Maximum holds released per sweep pass")
	fs.IntVar(&cfg.MaxOutboxBatch, "outbox-batch", cfg.MaxOutboxBatch, "Maximum events per outbox poll")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	cfg.PaymentMode = PaymentMode(paymentModeStr)
	cfg.KafkaBrokers = splitCSV(kafkaBrokersStr)

	if cfg.ReservationTTL, err = time.ParseDuration(reservationTTLStr); err != nil {
		return nil, fmt.Errorf("invalid reservation ttl: %w", err)
	}
	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}
	if cfg.OutboxPollInterval, err = time.ParseDuration(outboxPollStr); err != nil {
		return nil, fmt.Errorf("invalid outbox poll interval: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("SWEEP_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read sweep secret file: %w", err)
		}
		cfg.SweepSecret = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.MaxSweepBatch <= 0 {
		cfg.MaxSweepBatch = defaultMaxSweepBatch
	}
	if cfg.MaxOutboxBatch <= 0 {
		cfg.MaxOutboxBatch = defaultMaxOutboxBatch
	}
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = defaultReservationTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.OutboxPollInterval <= 0 {
		cfg.OutboxPollInterval = defaultOutboxPollInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	switch cfg.PaymentMode {
	case PaymentModeSimulated:
	case PaymentModeLive:
		if cfg.PaymentGatewayURL == "" {
			return nil, fmt.Errorf("payment gateway address must be provided in live mode")
		}
	default:
		return nil, fmt.Errorf("unknown payment mode %q", cfg.PaymentMode)
	}

	if cfg.SweepSecret == "" && !cfg.SweepAuthDisabled {
		return nil, fmt.Errorf("sweep secret must be provided unless sweep auth is disabled")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
