package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
)

var _ ports.History = (*History)(nil)

// History is a fixed-size ring of consumed messages.
type History struct {
	mu    sync.Mutex
	items []domain.Item
	next  int
	count int
}

// NewHistory keeps at most limit items; a non-positive limit uses domain.HistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}
	return &History{items: make([]domain.Item, limit)}
}

func (h *History) Add(_ context.Context, item domain.Item) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items[h.next] = cloneItem(item)
	h.next = (h.next + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
	return nil
}

// List returns the retained items newest first.
func (h *History) List(_ context.Context) ([]domain.Item, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.Item, 0, h.count)
	for i := 1; i <= h.count; i++ {
		idx := (h.next - i + len(h.items)) % len(h.items)
		out = append(out, cloneItem(h.items[idx]))
	}
	return out, nil
}

func cloneItem(item domain.Item) domain.Item {
	item.To = append([]string(nil), item.To...)
	return item
}
