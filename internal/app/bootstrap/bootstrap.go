// Package bootstrap holds the process plumbing shared by every service binary:
// configuration, observability, storage, the notification broker, Temporal and HTTP serving.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	fulfillmentserver "github.com/Apurer/go-order-fulfillment/go"
	"github.com/Apurer/go-order-fulfillment/internal/app/config"
	notificationmail "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/mail"
	notificationmemory "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/memory"
	notificationrabbitmq "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/rabbitmq"
	notificationapp "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/application"
	notificationports "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-order-fulfillment/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-order-fulfillment/internal/platform/postgres"
	"github.com/Apurer/go-order-fulfillment/internal/platform/remote"
	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

const shutdownTimeout = 5 * time.Second

// Process is one running service with its configuration and telemetry.
type Process struct {
	Name        string
	Config      config.Config
	Instruments *platformobservability.Instruments
	Logger      *slog.Logger

	cleanups []func()
}

// Start loads configuration and initialises observability. Close must be called on exit.
func Start(ctx context.Context, serviceName, defaultPort string) (*Process, error) {
	cfg, err := config.Load(defaultPort)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	p := &Process{Name: serviceName, Config: cfg, Instruments: instruments, Logger: instruments.Logger}
	p.onClose(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			p.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	})
	return p, nil
}

// Close releases everything acquired through the process, newest first.
func (p *Process) Close() {
	for i := len(p.cleanups) - 1; i >= 0; i-- {
		p.cleanups[i]()
	}
	p.cleanups = nil
}

func (p *Process) onClose(fn func()) {
	p.cleanups = append(p.cleanups, fn)
}

// Database opens PostgreSQL and migrates models. A nil DB means in-memory stores should be used.
func (p *Process) Database(ctx context.Context, models ...any) *gorm.DB {
	db, cleanup := platformpostgres.Open(ctx, p.Config.PostgresDSN, p.Logger)
	if db == nil {
		return nil
	}
	if err := migrations.Run(db, models...); err != nil {
		p.Logger.Warn("schema migration failed, falling back to in-memory repositories", slog.String("error", err.Error()))
		cleanup()
		return nil
	}
	p.onClose(cleanup)
	return db
}

// Publisher returns the broker-backed notification publisher, or an in-process
// loopback that logs deliveries when RABBITMQ_URL is unset.
func (p *Process) Publisher() notificationports.Publisher {
	if p.Config.RabbitMQURL == "" {
		p.Logger.Warn("RABBITMQ_URL not set, notifications are delivered in-process to the log")
		consumer := notificationapp.NewConsumer(
			notificationmail.NewLogSender(p.Logger),
			notificationmemory.NewHistory(0),
			notificationapp.WithConsumerLogger(p.Logger),
		)
		return notificationmemory.NewLoopbackPublisher(consumer)
	}
	publisher := notificationrabbitmq.NewPublisher(p.Config.RabbitMQURL, p.Topology(),
		notificationrabbitmq.WithPublishTimeout(p.Config.PublishTimeout),
		notificationrabbitmq.WithPublisherLogger(p.Logger),
	)
	p.onClose(func() { _ = publisher.Close() })
	return publisher
}

// Topology is the configured notification exchange and queue.
func (p *Process) Topology() notificationrabbitmq.Topology {
	return notificationrabbitmq.Topology{Exchange: p.Config.NotificationExchange, Queue: p.Config.NotificationQueue}
}

// Breakers builds the per-dependency circuit breaker registry.
func (p *Process) Breakers() *resilience.Registry {
	return resilience.NewRegistry(p.Config.Breaker,
		resilience.WithLogger(p.Logger),
		resilience.WithMeter(p.Instruments.Meter("internal.platform.resilience")),
	)
}

// RemoteClient builds a proxy for a sibling service using the configured RPC timeout.
func (p *Process) RemoteClient(name, baseURL string) *remote.Client {
	return remote.NewClient(name, baseURL, remote.WithTimeout(p.Config.RPCTimeout))
}

// ConnectTemporal dials Temporal with tracing and structured logging unless disabled.
func (p *Process) ConnectTemporal() (client.Client, error) {
	if p.Config.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: p.Instruments.Tracer("temporal-client"),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  p.Config.TemporalAddress,
		Namespace: p.Config.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(p.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	c, err := client.Dial(options)
	if err != nil {
		return nil, err
	}
	p.onClose(c.Close)
	return c, nil
}

// Router builds a traced gin engine serving the given APIs.
func (p *Process) Router(handlers fulfillmentserver.ApiHandleFunctions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(p.Name))
	return fulfillmentserver.NewRouterWithGinEngine(router, handlers)
}

// Serve runs router on the configured port until ctx is done, then drains in-flight requests.
func (p *Process) Serve(ctx context.Context, router http.Handler) error {
	server := &http.Server{Addr: p.Config.Addr(), Handler: router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		p.Logger.Info("HTTP server listening", slog.String("service", p.Name), slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		p.Logger.Error("HTTP server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	p.Logger.Info("HTTP server shutting down", slog.String("service", p.Name))
	return server.Shutdown(shutdownCtx)
}
