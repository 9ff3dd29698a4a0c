// Package orders boots the order orchestrator service.
package orders

import (
	"context"
	"log/slog"

	fulfillmentserver "github.com/Apurer/go-order-fulfillment/go"
	"github.com/Apurer/go-order-fulfillment/internal/app/bootstrap"
	ordersexternal "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/external"
	ordersmemory "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-order-fulfillment/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

const ServiceName = "order-service"

// Run serves the orders API until ctx is cancelled. Order creation runs as a Temporal
// workflow when a server is reachable and inline otherwise.
func Run(ctx context.Context) error {
	p, err := bootstrap.Start(ctx, ServiceName, "8080")
	if err != nil {
		return err
	}
	defer p.Close()

	service, breakers := BuildService(ctx, p)
	var workflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(service)
	if temporalClient, err := p.ConnectTemporal(); err != nil {
		p.Logger.Warn("Temporal workflows unavailable, running order creation inline", slog.String("error", err.Error()))
	} else {
		workflows = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		p.Logger.Info("Temporal workflows enabled", slog.String("namespace", p.Config.TemporalNamespace))
	}

	router := p.Router(fulfillmentserver.ApiHandleFunctions{
		OrderAPI:   fulfillmentserver.NewOrderAPI(service, workflows),
		BreakerAPI: fulfillmentserver.NewBreakerAPI(breakers),
	})
	return p.Serve(ctx, router)
}

// BuildService assembles the instrumented order service and the breakers guarding its
// dependencies. The Temporal worker shares it so activities run the same orchestration.
func BuildService(ctx context.Context, p *bootstrap.Process) (ordersports.Service, *resilience.Registry) {
	var (
		repo ordersports.Repository       = ordersmemory.NewRepository()
		keys ordersports.IdempotencyStore = ordersmemory.NewIdempotencyStore()
	)
	if db := p.Database(ctx, orderspostgres.Models()...); db != nil {
		repo = orderspostgres.NewRepository(db)
		keys = orderspostgres.NewIdempotencyStore(db)
		p.Logger.Info("order repository configured with postgres")
	}

	cfg := p.Config
	breakers := p.Breakers()
	catalog := p.RemoteClient("catalog", cfg.CatalogBaseURL)
	core := ordersapp.NewService(repo,
		ordersapp.Dependencies{
			Products:  ordersexternal.NewCatalog(catalog, breakers.Breaker(ordersexternal.ProductBreaker)),
			Clients:   ordersexternal.NewDirectory(catalog, breakers.Breaker(ordersexternal.ClientBreaker)),
			Payments:  ordersexternal.NewPayments(p.RemoteClient("payments", cfg.PaymentsBaseURL), breakers.Breaker(ordersexternal.PaymentBreaker)),
			Publisher: p.Publisher(),
		},
		ordersapp.WithLogger(p.Logger),
		ordersapp.WithPaymentsEnabled(cfg.PaymentsEnabled),
		ordersapp.WithOpsRecipients(cfg.OpsRecipients),
		ordersapp.WithIdempotencyStore(keys),
	)
	if !cfg.PaymentsEnabled {
		p.Logger.Info("payments disabled, orders are created without charging")
	}
	service := ordersobs.New(core,
		ordersobs.WithLogger(p.Logger),
		ordersobs.WithTracer(p.Instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(p.Instruments.Meter("internal.orders.application")),
	)
	return service, breakers
}
