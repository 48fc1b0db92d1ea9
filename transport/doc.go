// Package transport provides the HTTP round-trip capability the dispatcher
// sends translated requests through.
//
// A Transport is a provider.RequestResponse[*http.Request, *http.Response]:
// it takes a fully built request and returns the response with its body
// unread. Implementations are shared across exchanges and must be safe for
// concurrent use.
//
// # Adapter
//
// Adapter is the net/http implementation. It is configured with Config and
// supports TLS, idle connection limits, and optional circuit breaker, rate
// limiter and bulkhead guards:
//
//	t, err := transport.New(transport.Config{
//	    Name:    "s3",
//	    TLS:     &security.TLSConfig{CAFile: "/etc/ssl/ca.pem"},
//	    Resilience: provider.ResilienceConfig{
//	        CircuitBreaker: &resilience.CircuitBreakerConfig{MaxFailures: 5},
//	    },
//	})
//
// Request bodies are single-use, so the Adapter never retries.
//
// # Other Transports
//
// Func adapts a plain function and FromRoundTripper adapts any
// http.RoundTripper. Component wraps an Adapter for lifecycle management.
package transport
