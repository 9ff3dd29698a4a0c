package external

import (
	"context"
	"fmt"

	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/remote"
	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

// OrderBreaker guards the callback into the orders service.
const OrderBreaker = "orderService"

var _ ports.OrderStatusUpdater = (*Orders)(nil)

type statusPayload struct {
	Status string `json:"status"`
}

// Orders calls PUT /api/orders/:id/status on the orders service.
type Orders struct {
	client  *remote.Client
	breaker *resilience.Breaker
}

func NewOrders(client *remote.Client, breaker *resilience.Breaker) *Orders {
	return &Orders{client: client, breaker: breaker}
}

// UpdateOrderStatus has no fallback; the caller logs failures.
func (o *Orders) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := resilience.Execute(ctx, o.breaker,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, o.client.Put(ctx, fmt.Sprintf("/api/orders/%d/status", orderID), statusPayload{Status: status}, nil)
		}, nil)
	return err
}
