package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/domain"
)

type CreateProductInput struct {
	Name              string
	Price             decimal.Decimal
	AvailableQuantity int32
}

type ClientInput struct {
	FullName string
	Email    string
	Phone    string
}

// Service exposes the product and client use cases.
type Service interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	ReduceStock(ctx context.Context, id int64, quantity int32) (*domain.Product, error)
	SeedProducts(ctx context.Context) (int, error)

	GetClient(ctx context.Context, id int64) (*domain.Client, error)
	ListClients(ctx context.Context) ([]*domain.Client, error)
	CreateClient(ctx context.Context, input ClientInput) (*domain.Client, error)
	UpdateClient(ctx context.Context, id int64, input ClientInput) (*domain.Client, error)
	DeleteClient(ctx context.Context, id int64) error
}
