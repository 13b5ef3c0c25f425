package audit

import (
	"context"
	"fmt"
	"reflect"
)

// NewAuditedChain returns a chain with the built-in update and destroy hooks
// installed as the outermost hooks.
func NewAuditedChain(w *Writer) *Chain {
	c := NewChain()
	c.Register(EventUpdate, LogUpdate(w))
	c.Register(EventDestroy, LogDestroy(w))
	return c
}

// LogUpdate records an "update" once the wrapped operation finishes. A
// successful update is recorded with the subject's pending changes, and only
// when there are any; a failed one is always recorded, without metadata.
func LogUpdate(w *Writer) Around {
	return func(ctx context.Context, s Subject, next Continuation) (any, error) {
		ctx, nested := enterEvent(ctx, s, EventUpdate)
		if nested {
			return next(ctx)
		}

		return observe(ctx, next, func(err error) {
			if err != nil {
				w.record(ctx, Input{Action: ActionUpdate, Subject: s, Err: err})
				return
			}
			tracked, ok := s.(Tracked)
			if !ok || !tracked.Changed() {
				w.metrics.skipped(ActionUpdate)
				return
			}
			w.record(ctx, Input{Action: ActionUpdate, Subject: s, Metadata: tracked.Changes()})
		})
	}
}

// LogDestroy records a "delete" for every destroy attempt.
func LogDestroy(w *Writer) Around {
	return func(ctx context.Context, s Subject, next Continuation) (any, error) {
		ctx, nested := enterEvent(ctx, s, EventDestroy)
		if nested {
			return next(ctx)
		}

		return observe(ctx, next, func(err error) {
			w.record(ctx, Input{Action: ActionDelete, Subject: s, Err: err})
		})
	}
}

// observe runs next and reports its outcome to done before returning it.
// A panic is reported as a failure and then re-raised with the same value.
func observe(ctx context.Context, next Continuation, done func(err error)) (result any, err error) {
	finished := false
	defer func() {
		if finished {
			return
		}
		if r := recover(); r != nil {
			done(panicError{value: r})
			panic(r)
		}
	}()

	result, err = next(ctx)
	finished = true
	done(err)
	return result, err
}

// panicError describes a recovered panic in an audit record. It is never
// returned to callers.
type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// enterEvent reports whether an audited run of event is already active for
// s. Subjects implementing Nester answer for themselves; others are tracked
// through ctx.
func enterEvent(ctx context.Context, s Subject, event Event) (context.Context, bool) {
	if n, ok := s.(Nester); ok {
		return ctx, n.Nested(event)
	}
	return enter(ctx, s, "event:"+string(event))
}

// scopeKey marks a context as already inside an audited operation so that
// nested runs for the same subject log once, at the outermost level.
type scopeKey struct {
	operation   string
	pointer     uintptr
	subjectType string
	subjectID   string
}

// scopeFor keys pointer subjects by identity and everything else by type and
// id. Only plain values go into the key so that comparing keys never panics.
func scopeFor(s Subject, operation string) scopeKey {
	if v := reflect.ValueOf(s); v.Kind() == reflect.Pointer {
		return scopeKey{operation: operation, pointer: v.Pointer()}
	}
	return scopeKey{operation: operation, subjectType: s.SubjectType(), subjectID: s.SubjectID()}
}

// enter marks ctx as inside operation for s. The returned bool is true when
// ctx was already marked.
func enter(ctx context.Context, s Subject, operation string) (context.Context, bool) {
	scope := scopeFor(s, operation)
	if ctx.Value(scope) != nil {
		return ctx, true
	}
	return context.WithValue(ctx, scope, struct{}{}), false
}
