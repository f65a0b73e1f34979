package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the YAML file read when AGENDEI_CONFIG is unset.
const DefaultConfigFile = "agendei.yaml"

// Load reads the file named by AGENDEI_CONFIG, or DefaultConfigFile.
func Load() (*Config, error) {
	path := os.Getenv("AGENDEI_CONFIG")
	if path == "" {
		path = DefaultConfigFile
	}
	return LoadFrom(path)
}

// LoadFrom layers defaults, the YAML file at yamlPath and the environment,
// in that order, and validates the result. A missing file is skipped; an
// unknown YAML key or an unparsable environment value is an error.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}
	if err := loadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays the non-empty environment variables onto cfg.
func loadEnv(cfg *Config) error {
	var env envOverlay
	env.text(&cfg.Server.Port, "AGENDEI_PORT")
	env.text(&cfg.Server.CORSOrigin, "AGENDEI_CORS_ORIGIN")
	env.duration(&cfg.Server.RequestTimeout, "AGENDEI_REQUEST_TIMEOUT")
	env.duration(&cfg.Server.ShutdownTimeout, "AGENDEI_SHUTDOWN_TIMEOUT")

	env.text(&cfg.Postgres.DSN, "DATABASE_URL")
	env.num32(&cfg.Postgres.MaxConns, "AGENDEI_PG_MAX_CONNS")
	env.num32(&cfg.Postgres.MinConns, "AGENDEI_PG_MIN_CONNS")
	env.duration(&cfg.Postgres.MaxConnLifetime, "AGENDEI_PG_MAX_CONN_LIFETIME")
	env.duration(&cfg.Postgres.MaxConnIdleTime, "AGENDEI_PG_MAX_CONN_IDLE_TIME")
	env.duration(&cfg.Postgres.HealthCheck, "AGENDEI_PG_HEALTH_CHECK")

	env.text(&cfg.NATS.URL, "NATS_URL")
	env.text(&cfg.NATS.Stream, "AGENDEI_NATS_STREAM")

	env.text(&cfg.Auth.JWTSecret, "AGENDEI_JWT_SECRET")
	env.text(&cfg.Auth.Issuer, "AGENDEI_JWT_ISSUER")
	env.text(&cfg.Auth.Audience, "AGENDEI_JWT_AUDIENCE")
	env.duration(&cfg.Auth.Leeway, "AGENDEI_JWT_LEEWAY")

	env.text(&cfg.Logging.Level, "AGENDEI_LOG_LEVEL")
	env.text(&cfg.Logging.Service, "AGENDEI_LOG_SERVICE")
	env.flag(&cfg.Logging.Async, "AGENDEI_LOG_ASYNC")

	// Cache
	env.num64(&cfg.Cache.L1MaxSizeMB, "AGENDEI_CACHE_L1_SIZE_MB")
	env.duration(&cfg.Cache.L1TTL, "AGENDEI_CACHE_L1_TTL")
	env.text(&cfg.Cache.L2Bucket, "AGENDEI_CACHE_L2_BUCKET")
	env.duration(&cfg.Cache.L2TTL, "AGENDEI_CACHE_L2_TTL")

	env.num(&cfg.Breaker.MaxFailures, "AGENDEI_BREAKER_MAX_FAILURES")
	env.duration(&cfg.Breaker.Timeout, "AGENDEI_BREAKER_TIMEOUT")

	env.float(&cfg.Rate.RequestsPerSecond, "AGENDEI_RATE_RPS")
	env.num(&cfg.Rate.Burst, "AGENDEI_RATE_BURST")
	env.duration(&cfg.Rate.CleanupInterval, "AGENDEI_RATE_CLEANUP_INTERVAL")
	env.duration(&cfg.Rate.MaxIdleTime, "AGENDEI_RATE_MAX_IDLE_TIME")

	// Idempotency
	env.text(&cfg.Idempotency.Bucket, "AGENDEI_IDEMPOTENCY_BUCKET")
	env.duration(&cfg.Idempotency.TTL, "AGENDEI_IDEMPOTENCY_TTL")

	// OpenTelemetry
	env.flag(&cfg.OTEL.Enabled, "AGENDEI_OTEL_ENABLED")
	env.text(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	env.text(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	env.flag(&cfg.OTEL.Insecure, "AGENDEI_OTEL_INSECURE")
	env.float(&cfg.OTEL.SampleRate, "AGENDEI_OTEL_SAMPLE_RATE")

	// Booking
	env.text(&cfg.Booking.GuestEmailDomain, "AGENDEI_GUEST_EMAIL_DOMAIN")
	env.text(&cfg.Booking.DefaultTimezone, "AGENDEI_DEFAULT_TIMEZONE")
	return errors.Join(env.errs...)
}

// validate reports every invalid setting at once.
func validate(cfg *Config) error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(cfg.Server.Port != "", "server.port is required")
	check(cfg.Postgres.DSN != "", "postgres.dsn is required")
	check(cfg.Postgres.MaxConns >= 1, "postgres.max_conns must be >= 1")
	check(cfg.Breaker.MaxFailures >= 1, "breaker.max_failures must be >= 1")
	check(cfg.Rate.RequestsPerSecond > 0, "rate.requests_per_second must be > 0")
	check(cfg.Rate.Burst >= 1, "rate.burst must be >= 1")
	check(cfg.Cache.L1MaxSizeMB >= 1, "cache.l1_max_size_mb must be >= 1")
	check(cfg.Idempotency.TTL > 0, "idempotency.ttl must be > 0")
	check(cfg.OTEL.SampleRate >= 0 && cfg.OTEL.SampleRate <= 1, "otel.sample_rate must be between 0 and 1")
	check(cfg.Booking.GuestEmailDomain != "" && !strings.Contains(cfg.Booking.GuestEmailDomain, "@"), "booking.guest_email_domain must be a bare domain")
	if _, err := time.LoadLocation(cfg.Booking.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("booking.default_timezone: %w", err))
	}
	return errors.Join(errs...)
}

// envOverlay applies environment variables and collects the ones that do
// not parse.
type envOverlay struct {
	errs []error
}

func overlay[T any](e *envOverlay, dst *T, key string, parse func(string) (T, error)) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := parse(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, v, err))
		return
	}
	*dst = parsed
}

func (e *envOverlay) text(dst *string, key string) {
	overlay(e, dst, key, func(v string) (string, error) { return v, nil })
}

func (e *envOverlay) num(dst *int, key string) { overlay(e, dst, key, strconv.Atoi) }

func (e *envOverlay) num32(dst *int32, key string) {
	overlay(e, dst, key, func(v string) (int32, error) {
		n, err := strconv.ParseInt(v, 10, 32)
		return int32(n), err
	})
}

func (e *envOverlay) num64(dst *int64, key string) {
	overlay(e, dst, key, func(v string) (int64, error) { return strconv.ParseInt(v, 10, 64) })
}

func (e *envOverlay) float(dst *float64, key string) {
	overlay(e, dst, key, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func (e *envOverlay) flag(dst *bool, key string) { overlay(e, dst, key, strconv.ParseBool) }

func (e *envOverlay) duration(dst *time.Duration, key string) {
	overlay(e, dst, key, time.ParseDuration)
}
