// Package catalog boots the product and client service.
package catalog

import (
	"context"
	"log/slog"

	fulfillmentserver "github.com/Apurer/go-order-fulfillment/go"
	"github.com/Apurer/go-order-fulfillment/internal/app/bootstrap"
	catalogmemory "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
)

const ServiceName = "catalog-service"

// Run serves products and clients. The demo products are seeded into an empty catalog on start.
func Run(ctx context.Context) error {
	p, err := bootstrap.Start(ctx, ServiceName, "8081")
	if err != nil {
		return err
	}
	defer p.Close()

	var (
		products catalogports.ProductRepository = catalogmemory.NewProductRepository()
		clients  catalogports.ClientRepository  = catalogmemory.NewClientRepository()
	)
	if db := p.Database(ctx, catalogpostgres.Models()...); db != nil {
		products = catalogpostgres.NewProductRepository(db)
		clients = catalogpostgres.NewClientRepository(db)
		p.Logger.Info("catalog repositories configured with postgres")
	}

	service := catalogapp.NewService(products, clients, catalogapp.WithLogger(p.Logger))
	if _, err := service.SeedProducts(ctx); err != nil {
		p.Logger.Warn("failed to seed demo products", slog.String("error", err.Error()))
	}

	router := p.Router(fulfillmentserver.ApiHandleFunctions{CatalogAPI: fulfillmentserver.NewCatalogAPI(service)})
	return p.Serve(ctx, router)
}
