package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStatusChanged is returned by UpdateStatus when the stored status no longer matches from.
	ErrStatusChanged = errors.New("order status changed concurrently")
)

// Repository persists orders.
type Repository interface {
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateStatus moves an order from one status to another only if it is still in from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.Status) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Order, error)
}
