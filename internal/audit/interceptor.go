package audit

import (
	"context"
	"sort"
	"sync"
)

// ActionFunc is a named side-effecting action on an entity.
type ActionFunc func(ctx context.Context) error

// Interceptor records named actions declared for an entity type. Each
// invocation of a declared action writes one record carrying the action name
// and its outcome, never metadata.
type Interceptor struct {
	writer *Writer

	mu    sync.RWMutex
	names map[string]struct{}
}

// NewInterceptor creates an interceptor for the given action names.
func NewInterceptor(w *Writer, names ...string) *Interceptor {
	i := &Interceptor{writer: w, names: make(map[string]struct{})}
	i.Intercept(names...)
	return i
}

// Intercept declares action names. Declaring a name twice has no effect.
func (i *Interceptor) Intercept(names ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, name := range names {
		i.names[name] = struct{}{}
	}
}

// Intercepts reports whether name is declared.
func (i *Interceptor) Intercepts(name string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.names[name]
	return ok
}

// Names lists the declared action names in sorted order.
func (i *Interceptor) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.names))
	for name := range i.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs fn. When name is declared, the outcome is recorded and fn's
// error (or panic) is passed through unchanged. Undeclared names, and nested
// invocations of the same action on the same subject, run unrecorded.
func (i *Interceptor) Invoke(ctx context.Context, s Subject, name string, fn ActionFunc) error {
	if !i.Intercepts(name) {
		return fn(ctx)
	}
	ctx, nested := enter(ctx, s, "action:"+name)
	if nested {
		return fn(ctx)
	}

	_, err := observe(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	}, func(err error) {
		i.writer.record(ctx, Input{Action: name, Subject: s, Err: err})
	})
	return err
}

// Wrap returns fn bound to s as the action name. Calls are recorded only
// while name is declared, and wrapping an already wrapped function still
// records a single entry per call.
func (i *Interceptor) Wrap(s Subject, name string, fn ActionFunc) ActionFunc {
	return func(ctx context.Context) error {
		return i.Invoke(ctx, s, name, fn)
	}
}
