// Package payments boots the payment processor service.
package payments

import (
	"context"

	fulfillmentserver "github.com/Apurer/go-order-fulfillment/go"
	"github.com/Apurer/go-order-fulfillment/internal/app/bootstrap"
	paymentsexternal "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/external"
	paymentsmemory "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/memory"
	paymentsobs "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/observability"
	paymentspostgres "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/persistence/postgres"
	paymentsapp "github.com/Apurer/go-order-fulfillment/internal/domains/payments/application"
	paymentsports "github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
)

const ServiceName = "payment-service"

func Run(ctx context.Context) error {
	p, err := bootstrap.Start(ctx, ServiceName, "8082")
	if err != nil {
		return err
	}
	defer p.Close()

	var repo paymentsports.Repository = paymentsmemory.NewRepository()
	if db := p.Database(ctx, paymentspostgres.Models()...); db != nil {
		repo = paymentspostgres.NewRepository(db)
		p.Logger.Info("payment repository configured with postgres")
	}

	cfg := p.Config
	breakers := p.Breakers()
	orders := paymentsexternal.NewOrders(p.RemoteClient("orders", cfg.OrdersBaseURL), breakers.Breaker(paymentsexternal.OrderBreaker))
	core := paymentsapp.NewService(repo, orders, p.Publisher(),
		paymentsapp.WithLogger(p.Logger),
		paymentsapp.WithDeclineCVV(cfg.PaymentDeclineCVV),
		paymentsapp.WithRecipients(cfg.OpsRecipients),
	)
	service := paymentsobs.New(core,
		paymentsobs.WithLogger(p.Logger),
		paymentsobs.WithTracer(p.Instruments.Tracer("internal.payments.application")),
		paymentsobs.WithMeter(p.Instruments.Meter("internal.payments.application")),
	)

	router := p.Router(fulfillmentserver.ApiHandleFunctions{PaymentAPI: fulfillmentserver.NewPaymentAPI(service)})
	return p.Serve(ctx, router)
}
