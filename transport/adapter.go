package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kbukum/sigdispatch/provider"
	"github.com/kbukum/sigdispatch/resilience"
)

// Adapter is a net/http Transport with TLS and resilience guards.
// It returns every response regardless of status and never reads the body.
type Adapter struct {
	httpClient *http.Client
	config     Config
	state      *provider.ResilienceState
}

// compile-time assertions
var _ Transport = (*Adapter)(nil)
var _ provider.Closeable = (*Adapter)(nil)

// New creates a new net/http transport with the given configuration.
func New(cfg Config) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := http.DefaultTransport.(*http.Transport).Clone()
	rt.MaxIdleConns = cfg.MaxIdleConns
	rt.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	rt.IdleConnTimeout = cfg.IdleConnTimeout

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
		if tlsCfg != nil {
			rt.TLSClientConfig = tlsCfg
		}
	}

	client := &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Adapter{
		httpClient: client,
		config:     cfg,
		state:      provider.BuildResilience(guards(cfg.Resilience)),
	}, nil
}

// guards copies the resilience config so a caller-cancelled exchange does not
// count against the circuit breaker.
func guards(cfg provider.ResilienceConfig) provider.ResilienceConfig {
	if cfg.CircuitBreaker == nil {
		return cfg
	}
	cb := *cfg.CircuitBreaker
	if cb.Name == "" {
		cb.Name = "transport"
	}
	if cb.IsFailure == nil {
		cb.IsFailure = func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}
	}
	cfg.CircuitBreaker = &cb
	return cfg
}

// Name returns the transport name (implements provider.Provider).
func (a *Adapter) Name() string {
	return a.config.Name
}

// IsAvailable reports false while the circuit breaker is open (implements provider.Provider).
func (a *Adapter) IsAvailable(_ context.Context) bool {
	return !a.state.CircuitOpen()
}

// Execute sends req and returns the response with its body unread
// (implements provider.RequestResponse). The caller owns the response body.
func (a *Adapter) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := provider.ExecuteWithResilience(ctx, a.state, func() (*http.Response, error) {
		return a.do(ctx, req)
	})
	if err == nil {
		return resp, nil
	}

	var e *Error
	switch {
	case errors.As(err, &e):
		return nil, err
	case errors.Is(err, resilience.ErrRateLimited),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrBulkheadFull),
		errors.Is(err, resilience.ErrBulkheadTimeout):
		closeBody(req)
		return nil, NewUnavailableError(err)
	default:
		closeBody(req)
		return nil, classify(ctx, err)
	}
}

func (a *Adapter) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := a.httpClient.Do(withContext(ctx, req))
	if err != nil {
		return nil, classify(ctx, err)
	}
	return resp, nil
}

// closeBody releases a request body the client never reached.
func closeBody(req *http.Request) {
	if req != nil && req.Body != nil {
		_ = req.Body.Close()
	}
}

// Close releases idle connections (implements provider.Closeable).
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// GetConfig returns the adapter's configuration with defaults applied.
func (a *Adapter) GetConfig() Config {
	return a.config
}
