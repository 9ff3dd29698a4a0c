package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
)

// normalizedCreateOrder is the hashed view of a create request. Card secrets stay out of it.
type normalizedCreateOrder struct {
	ProductID     int64  `json:"productId"`
	Quantity      int32  `json:"quantity"`
	ClientID      int64  `json:"clientId"`
	PaymentMethod string `json:"paymentMethod"`
	CardLast4     string `json:"cardLast4,omitempty"`
}

// FingerprintCreateOrder hashes the request payload, excluding the idempotency key.
func FingerprintCreateOrder(input ports.CreateOrderInput, method domain.PaymentMethod) (string, error) {
	normalized := normalizedCreateOrder{
		ProductID:     input.ProductID,
		Quantity:      input.Quantity,
		ClientID:      input.ClientID,
		PaymentMethod: string(method),
	}
	if input.Card != nil {
		digits := strings.ReplaceAll(strings.ReplaceAll(input.Card.Number, " ", ""), "-", "")
		if len(digits) >= 4 {
			normalized.CardLast4 = digits[len(digits)-4:]
		}
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// claim reserves key for this request. When another request already holds it, the order it
// produced is replayed, or a conflict is returned if the payload differs or it is still running.
func (s *Service) claim(ctx context.Context, key, hash string) (*domain.Order, bool, error) {
	held, claimed, err := s.idempotency.Claim(ctx, key, hash)
	if err != nil {
		return nil, false, err
	}
	if claimed {
		return nil, true, nil
	}
	if held.RequestHash != hash {
		return nil, false, fmt.Errorf("%w: key %q was used for another order request", ErrIdempotencyConflict, key)
	}
	if held.Pending() {
		return nil, false, fmt.Errorf("%w: a request with key %q is still in progress", ErrIdempotencyConflict, key)
	}
	order, err := s.repo.GetByID(ctx, held.OrderID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: order %d for key %q was deleted", ErrIdempotencyConflict, held.OrderID, key)
	}
	if err != nil {
		return nil, false, err
	}
	s.logger.InfoContext(ctx, "order create replayed",
		slog.String("idempotency.key", key),
		slog.Int64("order.id", order.ID))
	return order, false, nil
}

// settle completes the claim once an order exists, or releases it so the request can be retried.
func (s *Service) settle(ctx context.Context, key string, orderID int64) {
	ctx = context.WithoutCancel(ctx)
	var err error
	if orderID > 0 {
		err = s.idempotency.Complete(ctx, key, orderID)
	} else {
		err = s.idempotency.Release(ctx, key)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "idempotency key not settled",
			slog.String("idempotency.key", key),
			slog.Int64("order.id", orderID),
			slog.String("error", err.Error()))
	}
}
