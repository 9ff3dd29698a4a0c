package external

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/remote"
	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

var _ ports.PaymentGateway = (*Payments)(nil)

type cardPayload struct {
	Number string `json:"number"`
	CVV    string `json:"cvv"`
	Expiry string `json:"expiry,omitempty"`
	Owner  string `json:"owner,omitempty"`
}

type paymentRequestPayload struct {
	OrderID int64           `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
	Card    *cardPayload    `json:"card,omitempty"`
}

type paymentPayload struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// Payments calls the payment processor. A declined card comes back as a FAILED
// payment, not as an error.
type Payments struct {
	client  *remote.Client
	breaker *resilience.Breaker
}

func NewPayments(client *remote.Client, breaker *resilience.Breaker) *Payments {
	return &Payments{client: client, breaker: breaker}
}

// Pay answers with an UNAVAILABLE outcome when the processor cannot be reached.
func (p *Payments) Pay(ctx context.Context, req ports.PaymentRequest) (domain.PaymentResult, error) {
	body := paymentRequestPayload{OrderID: req.OrderID, Amount: req.Amount, Method: string(req.Method)}
	if req.Card != nil {
		body.Card = &cardPayload{Number: req.Card.Number, CVV: req.Card.CVV, Expiry: req.Card.Expiry, Owner: req.Card.Owner}
	}
	result, err := resilience.Execute(ctx, p.breaker,
		func(ctx context.Context) (domain.PaymentResult, error) {
			var out paymentPayload
			if err := p.client.Post(ctx, "/api/payments", body, &out); err != nil {
				return domain.PaymentResult{}, err
			}
			outcome := domain.PaymentDeclined
			if strings.EqualFold(out.Status, string(domain.PaymentApproved)) {
				outcome = domain.PaymentApproved
			}
			return domain.PaymentResult{PaymentID: out.ID, Outcome: outcome}, nil
		},
		func(_ context.Context, cause error) (domain.PaymentResult, error) {
			return domain.PaymentResult{Outcome: domain.PaymentUnavailable, Detail: cause.Error()}, nil
		})
	if err != nil {
		var rejected *remote.Error
		if errors.As(err, &rejected) && rejected.Kind == remote.KindRejected {
			return domain.PaymentResult{Outcome: domain.PaymentDeclined, Detail: rejected.Detail}, nil
		}
		return domain.PaymentResult{}, err
	}
	return result, nil
}
