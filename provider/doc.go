// Package provider defines the request/response abstraction that HTTP
// transports and the dispatcher share, plus composable middleware around it.
//
//   - RequestResponse[I, O]: one input → one output (an HTTP round trip, a signed dispatch)
//   - Iterator[T]: pull-based sequence of values (response body chunks)
//   - Closeable: opt-in resource cleanup
//
// # Adapting
//
// Adapt bridges a backend RequestResponse to a domain one by mapping
// the input before the call and the output after it:
//
//	dispatcher := provider.Adapt(transport, "s3", buildRequest, translateResponse)
//
// # Middleware
//
// Middleware[I, O] is a function that wraps a RequestResponse provider.
// Use Chain to compose multiple middlewares:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("my-service"),
//	)(rawProvider)
//
// WithResilience adds rate limiting, a bulkhead and a circuit breaker.
package provider
