package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
)

type PayInput struct {
	OrderID int64
	Amount  decimal.Decimal
	Method  string
	Card    *domain.Card
}

// Service exposes payment use cases to adapters.
type Service interface {
	Pay(ctx context.Context, input PayInput) (*domain.Payment, error)
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	List(ctx context.Context) ([]*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error)
	CorrectStatus(ctx context.Context, id int64, status domain.Status) (*domain.Payment, error)
}
