package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service settings.
type Config struct {
	Port             int
	DB               DB
	Auth             Auth
	OperationTimeout time.Duration
	RateLimit        RateLimit
	LoginLimit       LoginLimit
	Kafka            Kafka
	Events           Events
	Pprof            Pprof
	Log              Log
}

// DB holds PostgreSQL connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns the connection string for pgx.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Auth holds credential settings.
type Auth struct {
	JWTSecret string
}

// RateLimit configures the per-client token bucket applied to every route.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// LoginLimit configures the shared fixed-window limiter on login.
// It is disabled when RedisAddr is empty.
type LoginLimit struct {
	RedisAddr string
	Limit     int
	Window    time.Duration
}

// Kafka configures the lifecycle event stream. No brokers disables publishing.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Events configures publish retries.
type Events struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Pprof configures the profiling server. Empty Addr disables it.
type Pprof struct {
	Addr string
	User string
	Pass string
}

// Log selects the logging backend and level.
type Log struct {
	Backend string
	Level   string
}

// ErrMissingSecret is returned when JWT_SECRET is not set.
var ErrMissingSecret = errors.New("JWT_SECRET must be set")

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:             defaultPort,
		DB:               defaultDB,
		OperationTimeout: defaultOperationTimeout,
		RateLimit:        defaultRateLimit,
		LoginLimit:       defaultLoginLimit,
		Kafka:            defaultKafka,
		Events:           defaultEvents,
		Log:              defaultLog,
	}

	var err error
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return nil, err
	}

	cfg.DB.Host = envString("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envString("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envString("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Pass = envString("POSTGRES_PASSWORD", cfg.DB.Pass)
	cfg.DB.Name = envString("POSTGRES_DB", cfg.DB.Name)
	if _, err := strconv.Atoi(cfg.DB.Port); err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT %q: %w", cfg.DB.Port, err)
	}

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	if cfg.OperationTimeout, err = envDuration("OPERATION_TIMEOUT", cfg.OperationTimeout); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Enabled, err = envBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Rate, err = envFloat("RATE_LIMIT_RATE", cfg.RateLimit.Rate); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst); err != nil {
		return nil, err
	}
	if cfg.RateLimit.TTL, err = envDuration("RATE_LIMIT_TTL", cfg.RateLimit.TTL); err != nil {
		return nil, err
	}
	if cfg.RateLimit.MaxBuckets, err = envInt("RATE_LIMIT_MAX_BUCKETS", cfg.RateLimit.MaxBuckets); err != nil {
		return nil, err
	}

	cfg.LoginLimit.RedisAddr = envString("REDIS_ADDR", cfg.LoginLimit.RedisAddr)
	if cfg.LoginLimit.Limit, err = envInt("LOGIN_RATE_LIMIT", cfg.LoginLimit.Limit); err != nil {
		return nil, err
	}
	if cfg.LoginLimit.Window, err = envDuration("LOGIN_RATE_WINDOW", cfg.LoginLimit.Window); err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	cfg.Kafka.Topic = envString("KAFKA_EVENTS_TOPIC", cfg.Kafka.Topic)

	if cfg.Events.MaxAttempts, err = envInt("EVENTS_MAX_ATTEMPTS", cfg.Events.MaxAttempts); err != nil {
		return nil, err
	}
	if cfg.Events.BaseDelay, err = envDuration("EVENTS_BASE_DELAY", cfg.Events.BaseDelay); err != nil {
		return nil, err
	}
	if cfg.Events.MaxDelay, err = envDuration("EVENTS_MAX_DELAY", cfg.Events.MaxDelay); err != nil {
		return nil, err
	}

	cfg.Pprof.Addr = os.Getenv("PPROF_ADDR")
	cfg.Pprof.User = os.Getenv("PPROF_USER")
	cfg.Pprof.Pass = os.Getenv("PPROF_PASS")

	cfg.Log.Backend = envString("LOG_BACKEND", cfg.Log.Backend)
	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingSecret
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("invalid OPERATION_TIMEOUT: %s", c.OperationTimeout)
	}
	if c.LoginLimit.RedisAddr != "" && (c.LoginLimit.Limit <= 0 || c.LoginLimit.Window <= 0) {
		return fmt.Errorf("invalid login rate limit: %d per %s", c.LoginLimit.Limit, c.LoginLimit.Window)
	}
	switch c.Log.Backend {
	case "slog", "zap":
	default:
		return fmt.Errorf("unknown LOG_BACKEND %q", c.Log.Backend)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
