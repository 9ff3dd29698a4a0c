package ports

import (
	"context"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
)

// WorkflowOrchestrator runs order creation, durably when a workflow engine is available.
type WorkflowOrchestrator interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
}
