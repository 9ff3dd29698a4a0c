package resilience

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Snapshot is a point-in-time view of one breaker.
type Snapshot struct {
	Name                 string `json:"name"`
	State                string `json:"state"`
	Requests             uint32 `json:"requests"`
	TotalSuccesses       uint32 `json:"totalSuccesses"`
	TotalFailures        uint32 `json:"totalFailures"`
	ConsecutiveSuccesses uint32 `json:"consecutiveSuccesses"`
	ConsecutiveFailures  uint32 `json:"consecutiveFailures"`
	Fallbacks            int64  `json:"fallbacks"`
}

// Registry hands out one breaker per dependency name.
type Registry struct {
	mu       sync.Mutex
	settings Settings
	opts     []Option
	breakers map[string]*Breaker
}

func NewRegistry(settings Settings, opts ...Option) *Registry {
	return &Registry{settings: settings, opts: opts, breakers: map[string]*Breaker{}}
}

// Breaker returns the breaker registered under name, creating it on first use.
func (r *Registry) Breaker(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := NewBreaker(name, r.settings, r.opts...)
	r.breakers[name] = b
	return b
}

// Snapshots lists every registered breaker ordered by name.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	names := lo.Keys(r.breakers)
	breakers := make(map[string]*Breaker, len(r.breakers))
	for k, v := range r.breakers {
		breakers[k] = v
	}
	r.mu.Unlock()

	slices.Sort(names)
	return lo.Map(names, func(name string, _ int) Snapshot {
		return breakers[name].Snapshot()
	})
}
