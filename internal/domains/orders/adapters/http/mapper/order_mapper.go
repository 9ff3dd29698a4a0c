package mapper

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
)

// Order is the transport-layer shape returned by the orders API.
type Order struct {
	ID         int64           `json:"id"`
	ClientID   int64           `json:"clientId"`
	ProductID  int64           `json:"productId"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type Card struct {
	Number string `json:"number"`
	CVV    string `json:"cvv"`
	Expiry string `json:"expiry"`
	Owner  string `json:"owner"`
}

// CreateOrder is the POST /api/orders body.
type CreateOrder struct {
	ProductID     int64  `json:"productId"`
	Quantity      int32  `json:"quantity"`
	ClientID      int64  `json:"clientId"`
	PaymentMethod string `json:"paymentMethod"`
	Card          *Card  `json:"card"`
}

// StatusUpdate is the PUT /api/orders/:id/status body.
type StatusUpdate struct {
	Status string `json:"status" binding:"required"`
}

// ToInput converts the request body; the idempotency key comes from the request header.
func (c CreateOrder) ToInput(idempotencyKey string) ports.CreateOrderInput {
	input := ports.CreateOrderInput{
		ProductID:      c.ProductID,
		Quantity:       c.Quantity,
		ClientID:       c.ClientID,
		PaymentMethod:  domain.PaymentMethod(c.PaymentMethod),
		IdempotencyKey: idempotencyKey,
	}
	if c.Card != nil {
		input.Card = &domain.CardDetails{Number: c.Card.Number, CVV: c.Card.CVV, Expiry: c.Card.Expiry, Owner: c.Card.Owner}
	}
	return input
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	return Order{
		ID:         order.ID,
		ClientID:   order.ClientID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		UnitPrice:  order.UnitPrice,
		TotalPrice: order.TotalPrice,
		Status:     string(order.Status),
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}

func FromDomainOrders(orders []*domain.Order) []Order {
	return lo.Map(orders, func(o *domain.Order, _ int) Order { return FromDomainOrder(o) })
}
