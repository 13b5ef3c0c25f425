// Package audit records one audit entry per audited entity operation.
//
// Updates and destroys run through a Chain of around-style hooks; the
// built-in hooks installed by NewAuditedChain write the record once the
// wrapped operation returns or panics. Named side-effecting actions go
// through an Interceptor instead. Both report errors and panics to the caller
// unchanged; failures to write the audit record itself are logged and never
// replace the operation's outcome.
package audit

import (
	"time"

	"entityaudit/internal/tracking"
)

// Actions written by the built-in hooks.
const (
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Subject is an audited entity.
type Subject interface {
	// SubjectType is the logical type name of the entity.
	SubjectType() string
	// SubjectID is the entity's primary key, or "" when it has none yet.
	SubjectID() string
}

// Tracked is a Subject that exposes its pending attribute changes.
type Tracked interface {
	Subject
	Changed() bool
	Changes() tracking.Changes
}

// Nester is a Subject that tracks its own audited calls. Nested reports
// whether the current run of event is inside another run of the same event
// on the subject, in which case the built-in hooks do not write a record.
type Nester interface {
	Subject
	Nested(event Event) bool
}

// Record is a persisted audit entry. Records are immutable once created.
type Record struct {
	ID          string           `json:"id"`
	Action      string           `json:"action"`
	SubjectType string           `json:"subject_type"`
	SubjectID   string           `json:"subject_id,omitempty"`
	Actor       string           `json:"actor,omitempty"`
	Metadata    tracking.Changes `json:"metadata"`
	Success     bool             `json:"success"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Input describes the outcome of one audited operation.
type Input struct {
	Action   string
	Subject  Subject
	Metadata tracking.Changes
	// Err is the error the operation returned, nil on success.
	Err error
}
