// Package resilience provides the failure-isolation primitives used around
// HTTP transports.
//
//   - CircuitBreaker: fails fast once an upstream keeps failing
//   - Bulkhead: caps concurrent in-flight calls
//   - RateLimiter: token bucket pacing of outgoing calls
//
// There is no retry primitive. Request bodies are single-use.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("s3"))
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 10})
//
//	err := cb.Execute(func() error {
//	    return bh.Execute(ctx, func() error {
//	        resp, err := httpClient.Do(req)
//	        ...
//	    })
//	})
package resilience
