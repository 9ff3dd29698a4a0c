package mapper

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
)

// Payment is the transport shape; card data is limited to the last four digits.
type Payment struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	CardLast4  string          `json:"cardLast4,omitempty"`
	CardExpiry string          `json:"cardExpiry,omitempty"`
	OwnerName  string          `json:"ownerName,omitempty"`
	Status     string          `json:"status"`
	Corrected  bool            `json:"corrected"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Card struct {
	Number string `json:"number"`
	CVV    string `json:"cvv"`
	Expiry string `json:"expiry"`
	Owner  string `json:"owner"`
}

// PaymentRequest is the POST /api/payments body.
type PaymentRequest struct {
	OrderID int64           `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
	Card    *Card           `json:"card"`
}

// StatusCorrection is the PATCH /api/payments/:id/status body.
type StatusCorrection struct {
	Status string `json:"status" binding:"required"`
}

func (r PaymentRequest) ToInput() ports.PayInput {
	input := ports.PayInput{OrderID: r.OrderID, Amount: r.Amount, Method: r.Method}
	if r.Card != nil {
		input.Card = &domain.Card{Number: r.Card.Number, CVV: r.Card.CVV, Expiry: r.Card.Expiry, Owner: r.Card.Owner}
	}
	return input
}

func FromDomainPayment(p *domain.Payment) Payment {
	if p == nil {
		return Payment{}
	}
	return Payment{
		ID:         p.ID,
		OrderID:    p.OrderID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		CardLast4:  p.CardLast4,
		CardExpiry: p.CardExpiry,
		OwnerName:  p.OwnerName,
		Status:     string(p.Status),
		Corrected:  p.Corrected,
		CreatedAt:  p.CreatedAt,
	}
}

func FromDomainPayments(list []*domain.Payment) []Payment {
	return lo.Map(list, func(p *domain.Payment, _ int) Payment { return FromDomainPayment(p) })
}
