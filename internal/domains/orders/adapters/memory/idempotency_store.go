package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps Idempotency-Key claims in process memory.
type IdempotencyStore struct {
	mu     sync.Mutex
	claims map[string]ports.IdempotencyRecord
	now    func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		claims: map[string]ports.IdempotencyRecord{},
		now:    time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *IdempotencyStore) Claim(_ context.Context, key, requestHash string) (*ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if held, ok := s.claims[key]; ok {
		if !held.Pending() || now.Sub(held.CreatedAt) < ports.ClaimTimeout {
			return &held, false, nil
		}
	}
	claim := ports.IdempotencyRecord{Key: key, RequestHash: requestHash, CreatedAt: now}
	s.claims[key] = claim
	return &claim, true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	held, ok := s.claims[key]
	if !ok || !held.Pending() {
		return ports.ErrIdempotencyConflict
	}
	held.OrderID = orderID
	s.claims[key] = held
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.claims[key]; ok && held.Pending() {
		delete(s.claims, key)
	}
	return nil
}
