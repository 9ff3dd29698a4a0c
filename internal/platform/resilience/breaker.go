// Package resilience guards dependency calls with per-dependency circuit breakers.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Apurer/go-order-fulfillment/internal/platform/remote"
)

// ErrFallbackFailed is returned when a fallback could not produce a degraded value.
var ErrFallbackFailed = errors.New("circuit breaker fallback failed")

// Settings controls when a breaker trips and how it recovers.
type Settings struct {
	// Window is the closed-state period after which counts are reset.
	Window time.Duration
	// MinRequests is the number of calls in the window before the ratio is evaluated.
	MinRequests uint32
	// FailureRatio trips the breaker once failures/requests exceeds it.
	FailureRatio float64
	// Cooldown is how long the breaker stays open before allowing trial calls.
	Cooldown time.Duration
	// HalfOpenCalls is the number of trial calls allowed, and the success streak needed to close.
	HalfOpenCalls uint32
	// CountRejections makes business rejections count as failures.
	CountRejections bool
}

// DefaultSettings mirrors the documented configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		Window:        30 * time.Second,
		MinRequests:   5,
		FailureRatio:  0.5,
		Cooldown:      10 * time.Second,
		HalfOpenCalls: 2,
	}
}

// Fallback produces a degraded value after the protected call failed or was short-circuited.
type Fallback[T any] func(ctx context.Context, cause error) (T, error)

// Breaker is a named circuit breaker shared by all callers of one dependency.
type Breaker struct {
	name      string
	settings  Settings
	cb        *gobreaker.CircuitBreaker[any]
	fallbacks atomic.Int64
	logger    *slog.Logger
	metrics   breakerMetrics
}

// Option customises a Breaker.
type Option func(*Breaker)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Breaker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithMeter(m metric.Meter) Option {
	return func(b *Breaker) {
		b.metrics = newBreakerMetrics(m)
	}
}

// NewBreaker builds a breaker for the named dependency.
func NewBreaker(name string, settings Settings, opts ...Option) *Breaker {
	b := &Breaker{
		name:     name,
		settings: normalize(settings),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:          name,
		MaxRequests:   b.settings.HalfOpenCalls,
		Interval:      b.settings.Window,
		Timeout:       b.settings.Cooldown,
		ReadyToTrip:   b.readyToTrip,
		OnStateChange: b.onStateChange,
		IsSuccessful:  b.isSuccessful,
	})
	return b
}

// Name returns the dependency name the breaker guards.
func (b *Breaker) Name() string { return b.name }

// State reports closed, half-open or open.
func (b *Breaker) State() string { return b.cb.State().String() }

// Fallbacks returns how many times a fallback was invoked.
func (b *Breaker) Fallbacks() int64 { return b.fallbacks.Load() }

// Snapshot captures the breaker state for inspection endpoints.
func (b *Breaker) Snapshot() Snapshot {
	counts := b.cb.Counts()
	return Snapshot{
		Name:                 b.name,
		State:                b.State(),
		Requests:             counts.Requests,
		TotalSuccesses:       counts.TotalSuccesses,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		Fallbacks:            b.Fallbacks(),
	}
}

// Execute runs call through the breaker. Unavailable failures and short-circuited
// calls are answered by fallback; rejections are returned to the caller untouched.
func Execute[T any](ctx context.Context, b *Breaker, call func(context.Context) (T, error), fallback Fallback[T]) (T, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return call(ctx)
	})
	if err == nil {
		value, _ := result.(T)
		return value, nil
	}
	if errors.Is(err, remote.ErrRejected) {
		var zero T
		return zero, err
	}
	return runFallback(ctx, b, err, fallback)
}

func runFallback[T any](ctx context.Context, b *Breaker, cause error, fallback Fallback[T]) (result T, err error) {
	b.recordFallback(ctx, cause)
	if fallback == nil {
		return result, cause
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = fmt.Errorf("%w: %s: panic: %v", ErrFallbackFailed, b.name, r)
			b.logger.LogAttrs(ctx, slog.LevelError, "breaker fallback panicked",
				slog.String("dependency", b.name), slog.Any("panic", r))
		}
	}()
	value, ferr := fallback(ctx, cause)
	if ferr != nil {
		var zero T
		b.logger.LogAttrs(ctx, slog.LevelError, "breaker fallback failed",
			slog.String("dependency", b.name), slog.String("error", ferr.Error()))
		return zero, fmt.Errorf("%w: %s: %w", ErrFallbackFailed, b.name, ferr)
	}
	return value, nil
}

// IsShortCircuit reports whether err means the breaker refused the call.
func IsShortCircuit(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (b *Breaker) recordFallback(ctx context.Context, cause error) {
	b.fallbacks.Add(1)
	shortCircuit := IsShortCircuit(cause)
	b.metrics.recordFallback(ctx, b.name, shortCircuit)
	failure := remote.KindOf(cause).String()
	if shortCircuit {
		failure = "short_circuit"
	}
	b.logger.LogAttrs(ctx, slog.LevelWarn, "dependency call answered by fallback",
		slog.String("dependency", b.name),
		slog.String("breaker.state", b.State()),
		slog.String("dependency.failure", failure),
		slog.Bool("dependency.timeout", remote.IsTimeout(cause)),
		slog.String("error", cause.Error()))
}

func (b *Breaker) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < b.settings.MinRequests {
		return false
	}
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return ratio > b.settings.FailureRatio
}

func (b *Breaker) isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, remote.ErrRejected) {
		return !b.settings.CountRejections
	}
	return false
}

func (b *Breaker) onStateChange(name string, from, to gobreaker.State) {
	ctx := context.Background()
	b.metrics.recordStateChange(ctx, name, to.String())
	b.logger.LogAttrs(ctx, slog.LevelWarn, "circuit breaker state changed",
		slog.String("dependency", name),
		slog.String("breaker.from", from.String()),
		slog.String("breaker.state", to.String()))
}

func normalize(s Settings) Settings {
	def := DefaultSettings()
	if s.Window <= 0 {
		s.Window = def.Window
	}
	if s.MinRequests == 0 {
		s.MinRequests = def.MinRequests
	}
	if s.FailureRatio <= 0 || s.FailureRatio > 1 {
		s.FailureRatio = def.FailureRatio
	}
	if s.Cooldown <= 0 {
		s.Cooldown = def.Cooldown
	}
	if s.HalfOpenCalls == 0 {
		s.HalfOpenCalls = def.HalfOpenCalls
	}
	return s
}

type breakerMetrics struct {
	fallbacks    metric.Int64Counter
	stateChanges metric.Int64Counter
}

func newBreakerMetrics(m metric.Meter) breakerMetrics {
	if m == nil {
		return breakerMetrics{}
	}
	fallbacks, _ := m.Int64Counter("resilience.breaker.fallbacks", metric.WithDescription("Number of fallback invocations per dependency"))
	stateChanges, _ := m.Int64Counter("resilience.breaker.state_changes", metric.WithDescription("Number of breaker state transitions"))
	return breakerMetrics{fallbacks: fallbacks, stateChanges: stateChanges}
}

func (m breakerMetrics) recordFallback(ctx context.Context, dependency string, shortCircuit bool) {
	if m.fallbacks != nil {
		m.fallbacks.Add(ctx, 1, metric.WithAttributes(
			attribute.String("dependency", dependency),
			attribute.Bool("breaker.short_circuit", shortCircuit),
		))
	}
}

func (m breakerMetrics) recordStateChange(ctx context.Context, dependency, state string) {
	if m.stateChanges != nil {
		m.stateChanges.Add(ctx, 1, metric.WithAttributes(
			attribute.String("dependency", dependency),
			attribute.String("breaker.state", state),
		))
	}
}
