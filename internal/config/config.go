// Package config reads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the API.
type Config struct {
	HTTPAddr string

	// DBDSN for mysql must include parseTime=true.
	DBDriver string
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	// OperatorEmail receives a copy of every order. Empty disables it.
	OperatorEmail string
	MailFrom      string
	SMTPAddr      string
	SMTPUser      string
	SMTPPassword  string

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr   string
	CachePrefix string

	CORSOrigin     string
	RateLimit      float64
	RateBurst      int
	OutboxInterval time.Duration
	AsyncDispatch  bool

	LogLevel  string
	LogPretty bool
}

// Load reads .env when present, then the process environment. A missing
// .env is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		HTTPAddr:       r.str("HTTP_ADDR", ":8080"),
		DBDriver:       r.str("DB_DRIVER", database.DriverMySQL),
		DBDSN:          r.str("DB_DSN_PRIMARY", ""),
		JWTSecret:      r.str("JWT_SECRET", ""),
		JWTTTL:         r.duration("JWT_TTL", 72*time.Hour),
		OperatorEmail:  r.str("ADMIN_EMAIL", ""),
		MailFrom:       r.str("MAIL_FROM", "no-reply@localhost"),
		SMTPAddr:       r.str("SMTP_ADDR", ""),
		SMTPUser:       r.str("SMTP_USER", ""),
		SMTPPassword:   r.str("SMTP_PASSWORD", ""),
		KafkaBrokers:   r.list("KAFKA_BROKERS"),
		KafkaTopic:     r.str("KAFKA_TOPIC", "order-events"),
		RedisAddr:      r.str("REDIS_ADDR", ""),
		CachePrefix:    r.str("CACHE_PREFIX", "storefront"),
		CORSOrigin:     r.str("CORS_ORIGIN", "http://localhost:5173"),
		RateLimit:      r.number("RATE_LIMIT_RPS", 10),
		RateBurst:      r.integer("RATE_LIMIT_BURST", 20),
		OutboxInterval: r.duration("OUTBOX_INTERVAL", time.Minute),
		AsyncDispatch:  r.boolean("ASYNC_DISPATCH", false),
		LogLevel:       r.str("LOG_LEVEL", "info"),
		LogPretty:      r.boolean("LOG_PRETTY", false),
	}
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DBDriver != database.DriverMySQL && c.DBDriver != database.DriverSQLite {
		errs = append(errs, fmt.Errorf("DB_DRIVER: must be %q or %q, got %q", database.DriverMySQL, database.DriverSQLite, c.DBDriver))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN_PRIMARY: required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET: required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL: must be positive"))
	}
	if c.OutboxInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_INTERVAL: must be positive"))
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS, RATE_LIMIT_BURST: must be positive"))
	}
	return errors.Join(errs...)
}

// reader collects parse errors so every bad variable is reported at once.
type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) number(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}
