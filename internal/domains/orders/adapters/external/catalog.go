// Package external adapts the catalog and payment services to the order ports.
// Every call runs through a named circuit breaker with its own fallback.
package external

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/remote"
	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

const (
	ProductBreaker = ports.ProductService
	ClientBreaker  = ports.ClientService
	PaymentBreaker = ports.PaymentService
)

var (
	_ ports.ProductCatalog  = (*Catalog)(nil)
	_ ports.ClientDirectory = (*Directory)(nil)
)

type productPayload struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int32           `json:"availableQuantity"`
}

type reduceStockPayload struct {
	Quantity int32 `json:"quantity"`
}

type clientPayload struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Catalog reads products from the catalog service.
type Catalog struct {
	client  *remote.Client
	breaker *resilience.Breaker
}

func NewCatalog(client *remote.Client, breaker *resilience.Breaker) *Catalog {
	return &Catalog{client: client, breaker: breaker}
}

// GetProduct answers with a degraded placeholder when the catalog is unreachable.
func (c *Catalog) GetProduct(ctx context.Context, id int64) (domain.ProductSnapshot, error) {
	if id <= 0 {
		return domain.ProductSnapshot{}, domain.ErrInvalidProductID
	}
	snapshot, err := resilience.Execute(ctx, c.breaker,
		func(ctx context.Context) (domain.ProductSnapshot, error) {
			var p productPayload
			if err := c.client.Get(ctx, fmt.Sprintf("/api/products/%d", id), &p); err != nil {
				return domain.ProductSnapshot{}, err
			}
			return domain.ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price, AvailableQuantity: p.AvailableQuantity}, nil
		},
		func(context.Context, error) (domain.ProductSnapshot, error) {
			return domain.ProductSnapshot{ID: id, Degraded: true}, nil
		})
	switch {
	case remote.IsNotFound(err):
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %d", ports.ErrProductNotFound, id)
	case errors.Is(err, remote.ErrRejected):
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %w", ports.ErrRejected, err)
	}
	return snapshot, err
}

// ReduceStock has no fallback: the orchestrator logs the failure and moves on.
func (c *Catalog) ReduceStock(ctx context.Context, id int64, quantity int32) error {
	_, err := resilience.Execute(ctx, c.breaker,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.client.Post(ctx, fmt.Sprintf("/api/products/%d/reduce-stock", id), reduceStockPayload{Quantity: quantity}, nil)
		}, nil)
	return err
}

// Directory reads clients from the catalog service.
type Directory struct {
	client  *remote.Client
	breaker *resilience.Breaker
}

func NewDirectory(client *remote.Client, breaker *resilience.Breaker) *Directory {
	return &Directory{client: client, breaker: breaker}
}

func (d *Directory) GetClient(ctx context.Context, id int64) (domain.Customer, error) {
	if id <= 0 {
		return domain.Customer{}, domain.ErrInvalidClientID
	}
	customer, err := resilience.Execute(ctx, d.breaker,
		func(ctx context.Context) (domain.Customer, error) {
			var c clientPayload
			if err := d.client.Get(ctx, fmt.Sprintf("/api/clients/%d", id), &c); err != nil {
				return domain.Customer{}, err
			}
			return domain.Customer{ID: c.ID, FullName: c.FullName, Email: c.Email, Phone: c.Phone}, nil
		},
		func(context.Context, error) (domain.Customer, error) {
			return domain.Customer{ID: id, Degraded: true}, nil
		})
	switch {
	case remote.IsNotFound(err):
		return domain.Customer{}, fmt.Errorf("%w: %d", ports.ErrCustomerNotFound, id)
	case errors.Is(err, remote.ErrRejected):
		return domain.Customer{}, fmt.Errorf("%w: %w", ports.ErrRejected, err)
	}
	return customer, err
}
