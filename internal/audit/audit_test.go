package audit_test

import (
	"context"
	"errors"
	"testing"

	"entityaudit/internal/audit"
	"entityaudit/internal/store/memory"
	"entityaudit/internal/testutil"
	"entityaudit/internal/tracking"
)

// dog is a tracked subject compared by pointer identity.
type dog struct {
	id      string
	tracker *tracking.Tracker
}

func newDog(id string, attrs map[string]any) *dog {
	return &dog{id: id, tracker: tracking.New(attrs)}
}

func (d *dog) SubjectType() string       { return "Dog" }
func (d *dog) SubjectID() string         { return d.id }
func (d *dog) Changed() bool             { return d.tracker.Changed() }
func (d *dog) Changes() tracking.Changes { return d.tracker.Changes() }

// tagged is a non-comparable subject, scoped by type and id.
type tagged struct {
	id   string
	tags map[string]string
}

func (t tagged) SubjectType() string { return "Tagged" }
func (t tagged) SubjectID() string   { return t.id }

// boxed has a comparable type but may hold a map in its interface field.
type boxed struct {
	id    string
	extra any
}

func (b boxed) SubjectType() string { return "Boxed" }
func (b boxed) SubjectID() string   { return b.id }

// counted tracks its own nesting of update runs.
type counted struct {
	*dog
	depth int
}

func (c *counted) Nested(event audit.Event) bool { return event == audit.EventUpdate && c.depth > 1 }

func newWriter(t *testing.T, opts ...audit.WriterOption) (*audit.Writer, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	stores := audit.NewStores()
	stores.Register("audit_logs", store)
	w, err := audit.NewWriter(audit.Settings{CurrentUser: "system", AuditWith: "audit_logs"}, stores, opts...)
	testutil.AssertNoError(t, err)
	return w, store
}

func query(t *testing.T, store *memory.Store, subjectType, subjectID string) []audit.Record {
	t.Helper()
	records, err := store.Query(context.Background(), subjectType, subjectID)
	testutil.AssertNoError(t, err)
	return records
}

func succeed(context.Context) (any, error) { return "done", nil }

func fail(err error) audit.Continuation {
	return func(context.Context) (any, error) { return nil, err }
}

var errBoom = errors.New("boom")
