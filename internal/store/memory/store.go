// Package memory is an in-process audit store, used by tests and by
// deployments that only need audit records for the lifetime of the process.
package memory

import (
	"context"
	"sync"
	"time"

	"entityaudit/internal/audit"
	"entityaudit/internal/uuid"
)

// Store keeps audit records in memory, grouped by subject.
type Store struct {
	mu      sync.RWMutex
	records map[subjectKey][]audit.Record
	total   int
	now     func() time.Time
	fail    error
}

type subjectKey struct {
	subjectType string
	subjectID   string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[subjectKey][]audit.Record), now: time.Now}
}

// Create appends a record, assigning its ID and creation time.
func (s *Store) Create(_ context.Context, rec audit.Record) (*audit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return nil, s.fail
	}

	rec.ID = uuid.New()
	rec.CreatedAt = s.now().UTC()
	key := subjectKey{rec.SubjectType, rec.SubjectID}
	s.records[key] = append(s.records[key], rec)
	s.total++

	created := rec
	return &created, nil
}

// Query returns the records for a subject, newest first. Records are kept in
// insertion order, so ties on CreatedAt still come back in reverse write order.
func (s *Store) Query(_ context.Context, subjectType, subjectID string) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fail != nil {
		return nil, s.fail
	}

	stored := s.records[subjectKey{subjectType, subjectID}]
	out := make([]audit.Record, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

// Len returns the number of records across all subjects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Clear removes every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[subjectKey][]audit.Record)
	s.total = 0
}
