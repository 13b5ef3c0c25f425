// Package tracking records which attributes of an entity changed since its
// last committed state.
package tracking

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Change is the before/after pair for a single attribute. It serializes as a
// two element JSON array, [old, new].
type Change struct {
	Old any
	New any
}

// MarshalJSON implements json.Marshaler.
func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Old, c.New})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Change) UnmarshalJSON(data []byte) error {
	var pair []any
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decoding change: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decoding change: expected [old, new], got %d values", len(pair))
	}
	c.Old, c.New = pair[0], pair[1]
	return nil
}

// Changes maps attribute names to their before/after values.
type Changes map[string]Change

// Keys returns the changed attribute names in sorted order.
func (c Changes) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
