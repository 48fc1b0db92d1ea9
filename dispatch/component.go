package dispatch

import (
	"context"
	"fmt"

	"github.com/kbukum/sigdispatch/component"
	"github.com/kbukum/sigdispatch/transport"
)

// Component wraps a Client and its net/http transport with lifecycle management.
type Component struct {
	config    Config
	opts      []Option
	transport *transport.Component
	client    *Client
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a dispatcher component. The transport and client are
// created in Start().
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{
		config:    cfg,
		opts:      opts,
		transport: transport.NewComponent(cfg.Transport),
	}
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.config.Name
}

// Start validates the configuration and builds the transport and client.
func (c *Component) Start(ctx context.Context) error {
	if err := c.config.Validate(); err != nil {
		return err
	}
	if err := c.transport.Start(ctx); err != nil {
		return err
	}
	opts := append([]Option{
		WithName(c.config.Name),
		WithReadBufferSize(c.config.ReadBufferSize),
	}, c.opts...)
	c.client = New(c.transport.Adapter(), opts...)
	return nil
}

// Stop releases the transport's idle connections.
func (c *Component) Stop(ctx context.Context) error {
	return c.transport.Stop(ctx)
}

// Health reports the transport's health under the dispatcher's name.
func (c *Component) Health(ctx context.Context) component.Health {
	h := c.transport.Health(ctx)
	h.Name = c.Name()
	return h
}

// Describe returns the component description.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "dispatcher",
		Details: fmt.Sprintf("transport=%s read_buffer=%d", c.config.Transport.Name, c.config.ReadBufferSize),
	}
}

// Client returns the dispatcher. Must be called after Start().
func (c *Component) Client() *Client {
	return c.client
}
