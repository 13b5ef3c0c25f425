package audit

import (
	"context"
	"sync"
)

// Event names a lifecycle event hooks are registered for.
type Event string

// Lifecycle events.
const (
	EventUpdate  Event = "update"
	EventDestroy Event = "destroy"
)

// Continuation runs the rest of a chain.
type Continuation func(ctx context.Context) (any, error)

// Around wraps the rest of a chain. It should call next exactly once to
// proceed, or not at all to short-circuit; whatever it returns is what the
// enclosing hook (or Chain.Run) sees.
type Around func(ctx context.Context, subject Subject, next Continuation) (any, error)

// Chain holds around hooks per event, in registration order. Hooks are
// registered once per entity type and the chain is then shared by every
// instance of that type.
type Chain struct {
	mu    sync.RWMutex
	hooks map[Event][]Around
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{hooks: make(map[Event][]Around)}
}

// Register appends hook to event. Hooks registered first run outermost.
func (c *Chain) Register(event Event, hook Around) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks[event] = append(c.hooks[event], hook)
}

// Len reports how many hooks are registered for event.
func (c *Chain) Len(event Event) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hooks[event])
}

// Run nests the hooks for event around inner and executes them. Errors and
// panics from any hook or from inner propagate unchanged.
func (c *Chain) Run(ctx context.Context, event Event, subject Subject, inner Continuation) (any, error) {
	c.mu.RLock()
	hooks := append([]Around(nil), c.hooks[event]...)
	c.mu.RUnlock()

	next := inner
	for i := len(hooks) - 1; i >= 0; i-- {
		hook, rest := hooks[i], next
		next = func(ctx context.Context) (any, error) {
			return hook(ctx, subject, rest)
		}
	}
	return next(ctx)
}
