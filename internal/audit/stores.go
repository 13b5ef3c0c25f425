package audit

import (
	"context"
	"sort"
	"sync"

	apperrors "entityaudit/internal/errors"
)

// Store persists audit records.
type Store interface {
	// Create persists rec, assigning its ID and CreatedAt.
	Create(ctx context.Context, rec Record) (*Record, error)
	// Query returns every record for a subject, newest first.
	Query(ctx context.Context, subjectType, subjectID string) ([]Record, error)
}

// Stores resolves audit stores by their configured name.
type Stores struct {
	mu     sync.RWMutex
	byName map[string]Store
}

// NewStores creates an empty store registry.
func NewStores() *Stores {
	return &Stores{byName: make(map[string]Store)}
}

// Register makes store reachable under name, replacing any previous entry.
func (s *Stores) Register(name string, store Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[name] = store
}

// Resolve returns the store registered under name.
func (s *Stores) Resolve(name string) (Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, ok := s.byName[name]
	if !ok {
		return nil, apperrors.UnknownAuditStore(name)
	}
	return store, nil
}

// Names lists the registered store names in sorted order.
func (s *Stores) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
