// Package entity defines audited entity types whose persistence is
// delegated to a remote backend. Every Update, Destroy, Audit block and
// declared action on a Model produces one audit record.
package entity

import (
	"context"
	"fmt"

	"entityaudit/internal/audit"
	"entityaudit/internal/backend"
	apperrors "entityaudit/internal/errors"
)

// DefaultPrimaryKey is the attribute identifying a model when the
// definition does not name one.
const DefaultPrimaryKey = "uid"

// Backend persists a single model.
type Backend interface {
	Update(ctx context.Context) (*backend.Response, error)
	Destroy(ctx context.Context) error
}

// Definition describes an entity type. Hooks and declared actions are shared
// by every model built from it.
type Definition struct {
	name        string
	primaryKey  string
	writer      *audit.Writer
	chain       *audit.Chain
	interceptor *audit.Interceptor
	excluded    map[string]struct{}
	newBackend  func(m *Model) Backend
}

type options struct {
	primaryKey  string
	client      *backend.Client
	registry    *backend.Registry
	backendFunc func(m *Model) Backend
	hooks       []hook
	actions     []string
	excluded    []string
}

type hook struct {
	event audit.Event
	fn    audit.Around
}

// Option configures a Definition.
type Option func(*options)

// WithPrimaryKey names the primary key attribute.
func WithPrimaryKey(name string) Option {
	return func(o *options) { o.primaryKey = name }
}

// WithBackend persists models through c using its default REST routes.
func WithBackend(c *backend.Client) Option {
	return func(o *options) { o.client = c }
}

// WithBackends looks the entity's client up in r by entity name.
func WithBackends(r *backend.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithBackendFunc builds a custom backend per model. It takes precedence over
// WithBackend and WithBackends.
func WithBackendFunc(fn func(m *Model) Backend) Option {
	return func(o *options) { o.backendFunc = fn }
}

// WithAround registers a hook for event. Hooks run inside the built-in audit
// hooks, in registration order.
func WithAround(event audit.Event, fn audit.Around) Option {
	return func(o *options) { o.hooks = append(o.hooks, hook{event: event, fn: fn}) }
}

// WithAuditedActions declares named actions whose invocations are recorded.
func WithAuditedActions(names ...string) Option {
	return func(o *options) { o.actions = append(o.actions, names...) }
}

// WithExcludedAttributes keeps attributes out of the backend payload. They
// are still tracked and audited.
func WithExcludedAttributes(names ...string) Option {
	return func(o *options) { o.excluded = append(o.excluded, names...) }
}

// Define creates an entity type named name, audited through w.
func Define(name string, w *audit.Writer, opts ...Option) (*Definition, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidDefinition, "entity name is required")
	}
	if w == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidDefinition,
			fmt.Sprintf("entity %s needs an audit writer", name))
	}

	o := options{primaryKey: DefaultPrimaryKey}
	for _, opt := range opts {
		opt(&o)
	}

	newBackend, err := resolveBackend(name, o)
	if err != nil {
		return nil, err
	}

	d := &Definition{
		name:        name,
		primaryKey:  o.primaryKey,
		writer:      w,
		chain:       audit.NewAuditedChain(w),
		interceptor: audit.NewInterceptor(w, o.actions...),
		excluded:    make(map[string]struct{}, len(o.excluded)),
		newBackend:  newBackend,
	}
	for _, h := range o.hooks {
		d.chain.Register(h.event, h.fn)
	}
	for _, attr := range o.excluded {
		d.excluded[attr] = struct{}{}
	}
	return d, nil
}

func resolveBackend(name string, o options) (func(m *Model) Backend, error) {
	if o.backendFunc != nil {
		return o.backendFunc, nil
	}

	client := o.client
	if client == nil {
		if o.registry == nil {
			return nil, apperrors.NoSuchBackend(name)
		}
		var err error
		if client, err = o.registry.Lookup(name); err != nil {
			return nil, err
		}
	}
	return func(m *Model) Backend { return client.RegisterModel(m) }, nil
}

// Name returns the entity type name.
func (d *Definition) Name() string { return d.name }

// PrimaryKey returns the primary key attribute name.
func (d *Definition) PrimaryKey() string { return d.primaryKey }

// Around registers another hook for event, innermost so far.
func (d *Definition) Around(event audit.Event, fn audit.Around) {
	d.chain.Register(event, fn)
}

// Intercept declares more audited action names.
func (d *Definition) Intercept(names ...string) {
	d.interceptor.Intercept(names...)
}

// AuditedActions lists the declared action names.
func (d *Definition) AuditedActions() []string {
	return d.interceptor.Names()
}

// New builds a model holding attrs. The initial attributes count as
// committed and the model is bound to its backend.
func (d *Definition) New(attrs map[string]any) *Model {
	m := newModel(d, attrs)
	m.backend = d.newBackend(m)
	return m
}
