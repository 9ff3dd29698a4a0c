package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrEmailTaken      = errors.New("email already exists")
)

// ProductRepository persists products and applies stock reductions atomically.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	// ReduceStock decrements stock only if enough units remain, returning domain.ErrInsufficientStock otherwise.
	ReduceStock(ctx context.Context, id int64, quantity int32) (*domain.Product, error)
}

// ClientRepository persists clients. Emails are unique.
type ClientRepository interface {
	Save(ctx context.Context, client *domain.Client) (*domain.Client, error)
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Delete(ctx context.Context, id int64) error
}
