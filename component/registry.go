package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/sigdispatch/logger"
)

const defaultStopTimeout = 10 * time.Second

// Registry starts components in registration order and stops them in
// reverse. Components [0, running) are the started ones.
type Registry struct {
	mu          sync.RWMutex
	components  []Component
	index       map[string]int
	running     int
	log         *logger.Logger
	stopTimeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger for lifecycle events.
func WithRegistryLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l.WithComponent("registry") }
}

// WithStopTimeout bounds each component's Stop. Defaults to 10s.
func WithStopTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.stopTimeout = d }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		index:       map[string]int{},
		log:         logger.WithComponent("registry"),
		stopTimeout: defaultStopTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends c. Register a component's dependencies before it.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.index[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.index[name] = len(r.components)
	r.components = append(r.components, c)
	r.log.Debug("component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts every component not yet running. On failure the ones it
// started are stopped again and the start error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("starting components", logger.Fields("count", len(r.components)-r.running))
	for r.running < len(r.components) {
		c := r.components[r.running]
		if err := c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			return errors.Join(fmt.Errorf("failed to start %s: %w", c.Name(), err), r.stopRunning(ctx))
		}
		r.running++
		r.log.Debug("component started", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return nil
}

// StopAll stops the running components, last started first, and joins
// their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("stopping components", logger.Fields("count", r.running))
	return r.stopRunning(ctx)
}

func (r *Registry) stopRunning(ctx context.Context) error {
	var errs []error
	for ; r.running > 0; r.running-- {
		c := r.components[r.running-1]
		if err := r.stopOne(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", c.Name(), err))
			r.log.Warn("component stop failed", logger.ErrorFields("stop "+c.Name(), err))
			continue
		}
		r.log.Debug("component stopped", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return errors.Join(errs...)
}

func (r *Registry) stopOne(ctx context.Context, c Component) error {
	ctx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()
	return c.Stop(ctx)
}

// HealthAll reports every component's health in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	out := make([]Health, 0, len(r.All()))
	for _, c := range r.All() {
		out = append(out, c.Health(ctx))
	}
	return out
}

// Healthy reports whether every component is healthy.
func (r *Registry) Healthy(ctx context.Context) bool {
	for _, h := range r.HealthAll(ctx) {
		if h.Status != StatusHealthy {
			return false
		}
	}
	return true
}

// Describe collects the descriptions of Describable components. An empty
// Name is filled with the component's Name.
func (r *Registry) Describe() []Description {
	var out []Description
	for _, c := range r.All() {
		d, ok := c.(Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = c.Name()
		}
		out = append(out, desc)
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.index[name]; ok {
		return r.components[i]
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Component(nil), r.components...)
}
