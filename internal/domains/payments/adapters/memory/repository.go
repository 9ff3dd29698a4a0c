package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory payment store.
type Repository struct {
	mu       sync.RWMutex
	payments map[int64]*domain.Payment
	nextID   int64
	now      func() time.Time
}

func NewRepository() *Repository {
	return &Repository{payments: map[int64]*domain.Payment{}, now: time.Now}
}

func (r *Repository) Save(_ context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	clone := *payment
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.payments[clone.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	r.payments[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *payment
	return &clone, nil
}

func (r *Repository) Correct(_ context.Context, id int64, status domain.Status) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if err := payment.Correct(status); err != nil {
		return nil, err
	}
	payment.UpdatedAt = r.now().UTC()
	clone := *payment
	return &clone, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Payment, error) {
	return r.filter(func(*domain.Payment) bool { return true }), nil
}

func (r *Repository) ListByOrder(_ context.Context, orderID int64) ([]*domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return p.OrderID == orderID }), nil
}

func (r *Repository) filter(keep func(*domain.Payment) bool) []*domain.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := lo.FilterMap(lo.Values(r.payments), func(p *domain.Payment, _ int) (*domain.Payment, bool) {
		if !keep(p) {
			return nil, false
		}
		clone := *p
		return &clone, true
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
