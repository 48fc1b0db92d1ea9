package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/sigdispatch/errors"
	"github.com/kbukum/sigdispatch/resilience"
)

// ResilienceConfig selects the guards placed in front of a provider.
// Nil fields are skipped.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
	Bulkhead       *resilience.BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// IsEmpty reports whether no guard is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.RateLimiter == nil && c.Bulkhead == nil
}

// ResilienceState holds the guards built from a ResilienceConfig. A nil
// state guards nothing.
type ResilienceState struct {
	cb *resilience.CircuitBreaker
	rl *resilience.RateLimiter
	bh *resilience.Bulkhead
}

// BuildResilience builds the configured guards, or nil for an empty config.
func BuildResilience(cfg ResilienceConfig) *ResilienceState {
	if cfg.IsEmpty() {
		return nil
	}
	s := &ResilienceState{}
	if c := cfg.CircuitBreaker; c != nil {
		s.cb = resilience.NewCircuitBreaker(*c)
	}
	if c := cfg.RateLimiter; c != nil {
		s.rl = resilience.NewRateLimiter(*c)
	}
	if c := cfg.Bulkhead; c != nil {
		s.bh = resilience.NewBulkhead(*c)
	}
	return s
}

// CircuitOpen reports whether the breaker is rejecting calls.
func (s *ResilienceState) CircuitOpen() bool {
	return s != nil && s.cb != nil && s.cb.State() == resilience.StateOpen
}

// ExecuteWithResilience runs fn behind the guards in s, outermost first:
// rate limiter, bulkhead, circuit breaker. A guard's rejection is returned
// as an AppError; fn's own error is returned untouched.
func ExecuteWithResilience[T any](ctx context.Context, s *ResilienceState, fn func() (T, error)) (T, error) {
	if s == nil {
		return fn()
	}

	var (
		result T
		ran    bool
	)
	call := func() error {
		var err error
		ran = true
		result, err = fn()
		return err
	}
	if s.cb != nil {
		next := call
		call = func() error { return s.cb.Execute(next) }
	}
	if s.bh != nil {
		next := call
		call = func() error { return s.bh.Execute(ctx, next) }
	}
	if s.rl != nil {
		next := call
		call = func() error {
			if err := s.rl.Wait(ctx); err != nil {
				return err
			}
			return next()
		}
	}

	err := call()
	if err != nil && !ran {
		var zero T
		return zero, guardError(err)
	}
	return result, err
}

// WithResilience puts the guards in cfg in front of p. An empty config
// returns p itself. While the circuit is open the result reports itself
// unavailable.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &guardedRR[I, O]{inner: p, state: BuildResilience(cfg)}
}

type guardedRR[I, O any] struct {
	inner RequestResponse[I, O]
	state *ResilienceState
}

func (g *guardedRR[I, O]) Name() string { return g.inner.Name() }

func (g *guardedRR[I, O]) IsAvailable(ctx context.Context) bool {
	return !g.state.CircuitOpen() && g.inner.IsAvailable(ctx)
}

func (g *guardedRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return ExecuteWithResilience(ctx, g.state, func() (O, error) {
		return g.inner.Execute(ctx, input)
	})
}

func (g *guardedRR[I, O]) Close(ctx context.Context) error {
	return CloseIfCloseable(ctx, g.inner)
}

// guardError maps a guard's rejection onto the AppError taxonomy.
func guardError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable("provider").WithCause(err)
	case errors.Is(err, resilience.ErrRateLimited):
		return apperrors.RateLimited().WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.ServiceUnavailable("provider").WithCause(err).WithDetail("reason", "concurrency limit reached")
	case errors.Is(err, context.Canceled):
		return apperrors.Timeout("request canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("deadline exceeded").WithCause(err)
	}
	return err
}
