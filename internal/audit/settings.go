package audit

import "context"

// Settings is the process-wide audit configuration. It is built once at
// startup and treated as read-only afterwards.
type Settings struct {
	// CurrentUser is the actor recorded when the context carries none.
	CurrentUser string
	// AuditWith names the registered Store records are written to.
	AuditWith string
}

type actorKey struct{}

// WithActor returns a context whose audit records are attributed to actor,
// overriding Settings.CurrentUser for the duration of a request.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor for ctx, falling back to the configured user.
func (s Settings) ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return s.CurrentUser
}
