package backend

import (
	"sort"
	"sync"

	apperrors "entityaudit/internal/errors"
)

// Registry maps entity types to the client they persist through.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register sets the client for entityType, replacing any previous one.
func (r *Registry) Register(entityType string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[entityType] = c
}

// Lookup returns the client for entityType.
func (r *Registry) Lookup(entityType string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[entityType]
	if !ok {
		return nil, apperrors.NoSuchBackend(entityType)
	}
	return c, nil
}

// EntityTypes lists the registered entity types in sorted order.
func (r *Registry) EntityTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.clients))
	for t := range r.clients {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
