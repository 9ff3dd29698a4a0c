// Package config loads process settings from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

// Config carries environment-driven settings shared by every service process.
type Config struct {
	Port        string
	Environment string
	PostgresDSN string

	RabbitMQURL          string
	NotificationExchange string
	NotificationQueue    string
	PublishTimeout       time.Duration

	CatalogBaseURL  string
	PaymentsBaseURL string
	OrdersBaseURL   string
	RPCTimeout      time.Duration
	Breaker         resilience.Settings

	PaymentsEnabled   bool
	PaymentDeclineCVV string
	OpsRecipients     []string

	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SMTPTimeout  time.Duration

	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
}

// Load reads .env (when present) and the environment. defaultPort applies when PORT is unset.
func Load(defaultPort string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:                 envDefault("PORT", defaultPort),
		Environment:          envDefault("ENVIRONMENT", "local"),
		PostgresDSN:          strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RabbitMQURL:          strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
		NotificationExchange: envDefault("NOTIFICATION_EXCHANGE", "notificationExchange"),
		NotificationQueue:    envDefault("NOTIFICATION_QUEUE", "notificationQueue"),
		CatalogBaseURL:       envDefault("CATALOG_BASE_URL", "http://localhost:8081"),
		PaymentsBaseURL:      envDefault("PAYMENTS_BASE_URL", "http://localhost:8082"),
		OrdersBaseURL:        envDefault("ORDERS_BASE_URL", "http://localhost:8080"),
		PaymentDeclineCVV:    envDefault("PAYMENT_DECLINE_CVV", "999"),
		SMTPAddr:             strings.TrimSpace(os.Getenv("SMTP_ADDR")),
		SMTPFrom:             envDefault("SMTP_FROM", "noreply@demo.com"),
		SMTPUsername:         strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		TemporalAddress:      envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:    envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:     isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		PaymentsEnabled:      true,
		OpsRecipients:        splitList(os.Getenv("OPS_RECIPIENTS")),
	}
	if raw, ok := lookup("PAYMENTS_ENABLED"); ok {
		cfg.PaymentsEnabled = isTruthy(raw)
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	defaults := resilience.DefaultSettings()
	var err error
	cfg.RPCTimeout, err = durationEnv("RPC_TIMEOUT", 3*time.Second)
	collect(err)
	cfg.PublishTimeout, err = durationEnv("PUBLISH_TIMEOUT", 2*time.Second)
	collect(err)
	cfg.SMTPTimeout, err = durationEnv("SMTP_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.Breaker.Window, err = durationEnv("BREAKER_WINDOW", defaults.Window)
	collect(err)
	cfg.Breaker.Cooldown, err = durationEnv("BREAKER_COOLDOWN", defaults.Cooldown)
	collect(err)
	minRequests, err := positiveIntEnv("BREAKER_MIN_REQUESTS", int(defaults.MinRequests))
	collect(err)
	cfg.Breaker.MinRequests = uint32(minRequests)
	halfOpen, err := positiveIntEnv("BREAKER_HALF_OPEN_PROBES", int(defaults.HalfOpenCalls))
	collect(err)
	cfg.Breaker.HalfOpenCalls = uint32(halfOpen)
	cfg.Breaker.FailureRatio, err = ratioEnv("BREAKER_FAILURE_RATIO", defaults.FailureRatio)
	collect(err)
	cfg.Breaker.CountRejections = isTruthy(os.Getenv("BREAKER_COUNT_REJECTIONS"))

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		collect(fmt.Errorf("PORT must be numeric, got %q", cfg.Port))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func lookup(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	return strings.TrimSpace(val), true
}

func envDefault(key, fallback string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := lookup(key)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func positiveIntEnv(key string, fallback int) (int, error) {
	raw, ok := lookup(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func ratioEnv(key string, fallback float64) (float64, error) {
	raw, ok := lookup(key)
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 || f > 1 {
		return 0, fmt.Errorf("%s must be a ratio in (0,1], got %q", key, raw)
	}
	return f, nil
}

func splitList(raw string) []string {
	parts := lo.Map(strings.Split(raw, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Uniq(lo.Compact(parts))
}
