package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
)

var _ ports.ClientRepository = (*ClientRepository)(nil)

// ClientRepository is an in-memory client store enforcing unique emails.
type ClientRepository struct {
	mu      sync.RWMutex
	clients map[int64]*domain.Client
	nextID  int64
	now     func() time.Time
}

func NewClientRepository() *ClientRepository {
	return &ClientRepository{clients: map[int64]*domain.Client{}, now: time.Now}
}

func (r *ClientRepository) Save(_ context.Context, client *domain.Client) (*domain.Client, error) {
	if client == nil {
		return nil, errors.New("client is nil")
	}
	clone := *client
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.clients {
		if id != clone.ID && existing.Email == clone.Email {
			return nil, ports.ErrEmailTaken
		}
	}
	now := r.now().UTC()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.clients[clone.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	r.clients[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *ClientRepository) GetByID(_ context.Context, id int64) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, ports.ErrClientNotFound
	}
	clone := *client
	return &clone, nil
}

func (r *ClientRepository) List(_ context.Context) ([]*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Client, 0, len(r.clients))
	for _, client := range r.clients {
		clone := *client
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *ClientRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return ports.ErrClientNotFound
	}
	delete(r.clients, id)
	return nil
}
