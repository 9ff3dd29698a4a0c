package ports

import (
	"context"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
)

// CreateOrderInput carries an order placement request.
type CreateOrderInput struct {
	ProductID      int64
	Quantity       int32
	ClientID       int64
	PaymentMethod  domain.PaymentMethod
	Card           *domain.CardDetails
	IdempotencyKey string
}

// Service exposes order use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.Status) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}
