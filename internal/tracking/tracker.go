package tracking

import (
	"maps"
	"reflect"
)

// Tracker holds an entity's attributes together with the snapshot taken at
// the last commit. An attribute counts as changed while its current value
// differs from the snapshot, so assigning a value back to its original
// clears the change.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	current   map[string]any
	committed map[string]any
}

// New creates a tracker holding attrs. The initial attributes are committed
// immediately, so a fresh tracker reports no changes.
func New(attrs map[string]any) *Tracker {
	t := &Tracker{current: make(map[string]any, len(attrs))}
	maps.Copy(t.current, attrs)
	t.Commit()
	return t
}

// Get returns the current value of an attribute.
func (t *Tracker) Get(name string) (any, bool) {
	v, ok := t.current[name]
	return v, ok
}

// Set assigns a single attribute.
func (t *Tracker) Set(name string, value any) {
	t.current[name] = value
}

// Assign assigns every attribute in attrs.
func (t *Tracker) Assign(attrs map[string]any) {
	for k, v := range attrs {
		t.current[k] = v
	}
}

// Attributes returns a copy of the current attributes.
func (t *Tracker) Attributes() map[string]any {
	return maps.Clone(t.current)
}

// Changed reports whether any attribute differs from the committed snapshot.
func (t *Tracker) Changed() bool {
	for k, v := range t.current {
		old, ok := t.committed[k]
		if !ok || !reflect.DeepEqual(old, v) {
			return true
		}
	}
	return false
}

// Changes returns every attribute that differs from the committed snapshot.
// Attributes absent from the snapshot report a nil old value.
func (t *Tracker) Changes() Changes {
	changes := Changes{}
	for k, v := range t.current {
		old, ok := t.committed[k]
		if ok && reflect.DeepEqual(old, v) {
			continue
		}
		changes[k] = Change{Old: old, New: v}
	}
	return changes
}

// Commit marks the current attributes as the committed state ("changes applied").
func (t *Tracker) Commit() {
	t.committed = maps.Clone(t.current)
	if t.committed == nil {
		t.committed = map[string]any{}
	}
}

// Restore discards uncommitted changes.
func (t *Tracker) Restore() {
	t.current = maps.Clone(t.committed)
}
