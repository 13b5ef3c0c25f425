package backend

import (
	"context"
	"net/url"
)

// Model is an entity persisted through a Client.
type Model interface {
	// PrimaryKey returns the value identifying the model remotely.
	PrimaryKey() string
	// Payload returns the attributes sent on update.
	Payload() map[string]any
}

// Binding ties a model instance to a client and implements the default
// REST routes: PUT {base}/{pk} to update and DELETE {base}/{pk} to destroy.
type Binding struct {
	client *Client
	model  Model
}

// RegisterModel binds m to the client.
func (c *Client) RegisterModel(m Model) *Binding {
	return &Binding{client: c, model: m}
}

// Client returns the bound client.
func (b *Binding) Client() *Client { return b.client }

// Update sends the model's payload.
func (b *Binding) Update(ctx context.Context) (*Response, error) {
	return b.client.Put(ctx, b.path(), b.model.Payload())
}

// Destroy deletes the model.
func (b *Binding) Destroy(ctx context.Context) error {
	_, err := b.client.Delete(ctx, b.path())
	return err
}

func (b *Binding) path() string {
	return url.PathEscape(b.model.PrimaryKey())
}
