package transport

import (
	"context"
	"fmt"

	"github.com/kbukum/sigdispatch/component"
)

// Component wraps an Adapter with lifecycle management.
type Component struct {
	adapter *Adapter
	config  Config
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new transport component.
// The adapter is created lazily in Start().
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg}
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.config.Name
}

// Start builds the net/http transport.
func (c *Component) Start(_ context.Context) error {
	a, err := New(c.config)
	if err != nil {
		return err
	}
	c.adapter = a
	return nil
}

// Stop releases idle connections.
func (c *Component) Stop(ctx context.Context) error {
	if c.adapter != nil {
		return c.adapter.Close(ctx)
	}
	return nil
}

// Health reports unhealthy before Start and degraded while the circuit is open.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.adapter == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !c.adapter.IsAvailable(ctx):
		h.Status = component.StatusDegraded
		h.Message = "circuit open"
	}
	return h
}

// Describe returns the component description.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "transport",
		Details: fmt.Sprintf("timeout=%s idle=%d tls=%t", c.config.Timeout, c.config.MaxIdleConns, c.config.TLS.IsEnabled()),
	}
}

// Adapter returns the underlying transport. Must be called after Start().
func (c *Component) Adapter() *Adapter {
	return c.adapter
}
