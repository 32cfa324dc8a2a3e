package inventory

import (
	"context"
	"sync"
)

// Registry opens one Controller per collection owner on first use.
type Registry struct {
	config func(owner int64) Config

	mu   sync.Mutex
	open map[int64]*Controller
}

// NewRegistry returns a registry building controllers from config.
func NewRegistry(config func(owner int64) Config) *Registry {
	return &Registry{config: config, open: make(map[int64]*Controller)}
}

// Get returns the controller of owner, opening it if needed.
func (r *Registry) Get(ctx context.Context, owner int64) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.open[owner]; ok {
		return c, nil
	}
	cfg := r.config(owner)
	cfg.Owner = owner
	c, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.open[owner] = c
	return c, nil
}

// Forget drops the cached controller of owner.
func (r *Registry) Forget(owner int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, owner)
}

// Owners returns the owners with an open controller.
func (r *Registry) Owners() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := make([]int64, 0, len(r.open))
	for id := range r.open {
		owners = append(owners, id)
	}
	return owners
}
