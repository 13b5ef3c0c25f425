package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. UUIDv7 values are time-ordered, and values
// generated within the same millisecond by this process stay monotonic, which
// makes them a usable tie-breaker when audit records share a timestamp.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Fallback to a random v4 if the entropy source fails.
		return googleuuid.New().String()
	}
	return id.String()
}
