package entity

import (
	"context"
	"fmt"

	"entityaudit/internal/audit"
	"entityaudit/internal/backend"
	"entityaudit/internal/tracking"
)

// Model is one instance of an entity type. A Model is owned by a single
// goroutine and is not safe for concurrent use.
type Model struct {
	def     *Definition
	tracker *tracking.Tracker
	backend Backend

	// depth counts active Update/Audit calls and destroying active Destroy
	// calls. Only the outermost call commits and gets an audit record.
	depth      int
	destroying int
}

func newModel(d *Definition, attrs map[string]any) *Model {
	return &Model{def: d, tracker: tracking.New(attrs)}
}

// Definition returns the model's entity type.
func (m *Model) Definition() *Definition { return m.def }

// SubjectType implements audit.Subject.
func (m *Model) SubjectType() string { return m.def.name }

// SubjectID implements audit.Subject.
func (m *Model) SubjectID() string { return m.PrimaryKey() }

// PrimaryKey returns the primary key value, or "" when it is unset.
func (m *Model) PrimaryKey() string {
	v, ok := m.tracker.Get(m.def.primaryKey)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Get returns an attribute value.
func (m *Model) Get(name string) (any, bool) { return m.tracker.Get(name) }

// Set assigns an attribute without persisting it.
func (m *Model) Set(name string, value any) { m.tracker.Set(name, value) }

// Attributes returns a copy of every attribute.
func (m *Model) Attributes() map[string]any { return m.tracker.Attributes() }

// Payload returns the attributes sent to the backend.
func (m *Model) Payload() map[string]any {
	attrs := m.tracker.Attributes()
	for name := range m.def.excluded {
		delete(attrs, name)
	}
	return attrs
}

// Changed reports whether any attribute has changed since the last commit.
func (m *Model) Changed() bool { return m.tracker.Changed() }

// Changes returns the attributes changed since the last commit.
func (m *Model) Changes() tracking.Changes { return m.tracker.Changes() }

var _ audit.Nester = (*Model)(nil)

// Nested implements audit.Nester. It follows the model rather than the
// context, so a nested call made with a detached context still logs once.
func (m *Model) Nested(event audit.Event) bool {
	switch event {
	case audit.EventUpdate:
		return m.depth > 1
	case audit.EventDestroy:
		return m.destroying > 1
	default:
		return false
	}
}

// Update assigns attrs and persists the model through the update chain. On
// success the changes are committed and the backend response returned; on
// failure the error is returned unchanged and the changes stay pending.
func (m *Model) Update(ctx context.Context, attrs map[string]any) (*backend.Response, error) {
	m.tracker.Assign(attrs)

	result, err := m.runUpdate(ctx, func(ctx context.Context) (any, error) {
		return m.backend.Update(ctx)
	})
	if err != nil {
		return nil, err
	}
	resp, _ := result.(*backend.Response)
	return resp, nil
}

// Audit runs fn under the update chain. Attribute changes made before or
// inside fn are recorded as one update and committed when fn succeeds.
func (m *Model) Audit(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := m.runUpdate(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (m *Model) runUpdate(ctx context.Context, inner audit.Continuation) (any, error) {
	m.depth++
	defer func() { m.depth-- }()

	result, err := m.def.chain.Run(ctx, audit.EventUpdate, m, inner)
	if err != nil {
		return nil, err
	}
	if m.depth == 1 {
		m.tracker.Commit()
	}
	return result, nil
}

// Destroy deletes the model through the destroy chain. Every attempt is
// recorded.
func (m *Model) Destroy(ctx context.Context) error {
	m.destroying++
	defer func() { m.destroying-- }()

	_, err := m.def.chain.Run(ctx, audit.EventDestroy, m, func(ctx context.Context) (any, error) {
		return nil, m.backend.Destroy(ctx)
	})
	return err
}

// Perform runs fn as the named action. Declared actions are recorded; others
// simply run.
func (m *Model) Perform(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return m.def.interceptor.Invoke(ctx, m, name, fn)
}

// Action returns fn bound to the model as the named action. Like Perform, it
// is recorded only when name is declared for the entity type.
func (m *Model) Action(name string, fn func(ctx context.Context) error) audit.ActionFunc {
	return m.def.interceptor.Wrap(m, name, fn)
}

// AuditLogs returns the model's audit records, newest first.
func (m *Model) AuditLogs(ctx context.Context) ([]audit.Record, error) {
	store, err := m.def.writer.Store()
	if err != nil {
		return nil, err
	}
	return store.Query(ctx, m.SubjectType(), m.SubjectID())
}
