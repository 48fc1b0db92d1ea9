package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is the position of a circuit breaker.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects every call until Timeout has passed.
	StateOpen
	// StateHalfOpen lets HalfOpenMaxCalls probe calls through.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling the protected function while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this breaker in logs and state change callbacks.
	Name string `yaml:"name" mapstructure:"name"`
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// HalfOpenMaxCalls is the number of probe calls allowed, and the number
	// of successes needed to close the circuit again.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`
	// IsFailure decides whether an error counts against the circuit.
	// Nil means every non-nil error is a failure.
	IsFailure func(err error) bool `yaml:"-" mapstructure:"-"`
	// OnStateChange is called after every transition, outside the breaker's lock.
	OnStateChange func(name string, from, to State) `yaml:"-" mapstructure:"-"`
}

// DefaultCircuitBreakerConfig opens after 5 failures and probes again after 30s.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

type transition struct{ from, to State }

// CircuitBreaker fails fast once an upstream keeps failing.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	probes    int
	successes int
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	return &CircuitBreaker{config: config}
}

// Execute calls fn unless the circuit rejects it, in which case it returns
// ErrCircuitOpen. fn's error is returned unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	allowed, changes := cb.admit()
	cb.mu.Unlock()
	cb.notify(changes)
	if !allowed {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	changes = cb.record(err)
	cb.mu.Unlock()
	cb.notify(changes)
	return err
}

// State returns the current state. An open circuit whose Timeout has passed
// reports half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	changes := cb.advance()
	s := cb.state
	cb.mu.Unlock()
	cb.notify(changes)
	return s
}

// Failures returns the number of consecutive failures counted so far.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the circuit and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	changes := cb.moveTo(nil, StateClosed)
	cb.failures = 0
	cb.mu.Unlock()
	cb.notify(changes)
}

// advance moves an expired open circuit to half-open. Callers hold mu.
func (cb *CircuitBreaker) advance() []transition {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.Timeout {
		return cb.moveTo(nil, StateHalfOpen)
	}
	return nil
}

func (cb *CircuitBreaker) admit() (bool, []transition) {
	changes := cb.advance()
	switch cb.state {
	case StateClosed:
		return true, changes
	case StateHalfOpen:
		if cb.probes < cb.config.HalfOpenMaxCalls {
			cb.probes++
			return true, changes
		}
	}
	return false, changes
}

func (cb *CircuitBreaker) record(err error) []transition {
	failed := err != nil && (cb.config.IsFailure == nil || cb.config.IsFailure(err))

	if !failed {
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.config.HalfOpenMaxCalls {
				return cb.moveTo(nil, StateClosed)
			}
		}
		return nil
	}

	cb.failures++
	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			return cb.moveTo(nil, StateOpen)
		}
	case StateHalfOpen:
		return cb.moveTo(nil, StateOpen)
	}
	return nil
}

func (cb *CircuitBreaker) moveTo(changes []transition, to State) []transition {
	if cb.state == to {
		return changes
	}
	changes = append(changes, transition{from: cb.state, to: to})
	cb.state = to
	cb.probes = 0
	cb.successes = 0
	switch to {
	case StateOpen:
		cb.openedAt = time.Now()
	case StateClosed:
		cb.failures = 0
	}
	return changes
}

func (cb *CircuitBreaker) notify(changes []transition) {
	if cb.config.OnStateChange == nil {
		return
	}
	for _, c := range changes {
		cb.config.OnStateChange(cb.config.Name, c.from, c.to)
	}
}
