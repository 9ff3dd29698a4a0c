package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
)

var ErrNotFound = errors.New("payment not found")

// Repository persists payments. There is no delete.
type Repository interface {
	Save(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	// Correct sets the status and the corrected flag only if the payment was never corrected.
	// A second correction returns domain.ErrAlreadyCorrected.
	Correct(ctx context.Context, id int64, status domain.Status) (*domain.Payment, error)
	List(ctx context.Context) ([]*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error)
}

// OrderStatusUpdater is the orders service callback used after a successful charge.
type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}
