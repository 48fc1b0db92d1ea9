package dispatch

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/sigdispatch/logger"
	"github.com/kbukum/sigdispatch/observability"
	"github.com/kbukum/sigdispatch/provider"
	"github.com/kbukum/sigdispatch/transport"
)

const defaultName = "dispatch"

// Client dispatches signed requests through a Transport.
// It holds no per-exchange state and is safe for concurrent use.
type Client struct {
	name           string
	log            *logger.Logger
	middleware     []provider.Middleware[*http.Request, *http.Response]
	service        string
	metrics        *observability.Metrics
	resilience     provider.ResilienceConfig
	readBufferSize int

	transport transport.Transport
	pipeline  provider.RequestResponse[*exchange, *Response]
}

// compile-time assertions
var _ provider.RequestResponse[*SignedRequest, *Response] = (*Client)(nil)
var _ provider.Closeable = (*Client)(nil)

// exchange carries one dispatch through the pipeline.
type exchange struct {
	id   string
	req  *SignedRequest
	opts []DispatchOption
}

// Option configures a Client.
type Option func(*Client)

// WithName sets the client name used in logs, spans and metrics. Defaults to "dispatch".
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

// WithLogger sets the logger. Exchanges are logged at debug level only.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMiddleware wraps the transport with provider middleware, outermost first.
func WithMiddleware(mws ...provider.Middleware[*http.Request, *http.Response]) Option {
	return func(c *Client) { c.middleware = append(c.middleware, mws...) }
}

// WithTracing records a span for every dispatch and a child span for the
// transport call, named after service.
func WithTracing(service string) Option {
	return func(c *Client) { c.service = service }
}

// WithMetrics records request, transport and body byte metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithResilience guards the transport with a rate limiter, bulkhead and
// circuit breaker. Use it with transports that carry no guards of their own.
func WithResilience(cfg provider.ResilienceConfig) Option {
	return func(c *Client) { c.resilience = cfg }
}

// WithReadBufferSize sets the read buffer for response bodies without their own chunks.
func WithReadBufferSize(n int) Option {
	return func(c *Client) { c.readBufferSize = n }
}

// New creates a Client over t.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		name:           defaultName,
		log:            logger.NewNop(),
		readBufferSize: DefaultReadBufferSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent(c.name)

	mws := append([]provider.Middleware[*http.Request, *http.Response]{}, c.middleware...)
	if c.service != "" {
		mws = append(mws, provider.WithTracing[*http.Request, *http.Response](c.service))
	}
	if c.metrics != nil {
		mws = append(mws, provider.WithMetrics[*http.Request, *http.Response](c.metrics))
	}
	mws = append(mws, provider.WithLogging[*http.Request, *http.Response](c.log))

	c.transport = t
	inner := releaseOnError(provider.WithResilience[*http.Request, *http.Response](t, c.resilience))
	c.pipeline = provider.Adapt(provider.Chain(mws...)(inner), c.name, c.buildRequest, c.translateResponse)
	return c
}

// Name returns the client name (implements provider.Provider).
func (c *Client) Name() string { return c.name }

// IsAvailable reports whether the transport accepts calls (implements provider.Provider).
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.pipeline.IsAvailable(ctx)
}

// Execute dispatches req with no options (implements provider.RequestResponse).
func (c *Client) Execute(ctx context.Context, req *SignedRequest) (*Response, error) {
	return c.Dispatch(ctx, req)
}

// Close releases the transport when it holds resources (implements provider.Closeable).
func (c *Client) Close(ctx context.Context) error {
	return provider.CloseIfCloseable(ctx, c.transport)
}

// Dispatch sends req through the transport and returns the response envelope.
// Any status code is a response. Errors are *Error values; nothing is retried.
// The caller owns the returned Body.
func (c *Client) Dispatch(ctx context.Context, req *SignedRequest, opts ...DispatchOption) (*Response, error) {
	ex := &exchange{id: uuid.NewString(), req: req, opts: opts}
	bodyCtx := context.WithoutCancel(ctx)
	method, uri := "", ""
	if req != nil {
		method, uri = req.Method, req.URI()
	}

	if c.service != "" {
		var span trace.Span
		ctx, span = observability.StartSpan(ctx, observability.SpanDispatch)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrServiceName, c.service)
		observability.SetSpanAttribute(ctx, observability.AttrRequestID, ex.id)
		observability.SetSpanAttribute(ctx, observability.AttrHTTPMethod, method)
		observability.SetSpanAttribute(ctx, observability.AttrHTTPURL, uri)
	}
	if c.metrics != nil {
		c.metrics.RecordRequestStart(ctx)
	}

	fields := logger.Fields(logger.FieldRequestID, ex.id, logger.FieldMethod, method, logger.FieldURI, uri)
	c.log.Debug("dispatch started", fields)
	start := time.Now()

	resp, err := c.pipeline.Execute(ctx, ex)
	duration := time.Since(start)
	fields = logger.MergeWithDuration(fields, duration)

	if err != nil {
		dispErr, ok := err.(*Error)
		if !ok {
			dispErr = NewTransportError(err)
		}
		if c.metrics != nil {
			c.metrics.RecordRequestEnd(ctx, c.name, method, "error", duration)
		}
		fields[logger.FieldError] = dispErr.Error()
		fields["code"] = dispErr.Code.String()
		c.log.Debug("dispatch failed", fields)
		if c.service != "" {
			observability.SetSpanAttribute(ctx, observability.AttrErrorCode, dispErr.Code.String())
			observability.SetSpanStatusError(ctx, dispErr)
		}
		return nil, dispErr
	}

	if c.metrics != nil {
		c.metrics.RecordRequestEnd(ctx, c.name, method, strconv.Itoa(resp.StatusCode), duration)
		resp.Body.observe = func(n int) { c.metrics.RecordBodyBytes(bodyCtx, c.name, "in", n) }
	}
	fields[logger.FieldStatus] = resp.StatusCode
	c.log.Debug("dispatch finished", fields)
	if c.service != "" {
		observability.SetSpanAttribute(ctx, observability.AttrHTTPStatus, resp.StatusCode)
	}
	return resp, nil
}

// Result is the outcome of an asynchronous dispatch.
type Result struct {
	Response *Response
	Err      error
}

// DispatchAsync runs Dispatch on its own goroutine. The returned channel
// receives exactly one Result and is then closed.
func (c *Client) DispatchAsync(ctx context.Context, req *SignedRequest, opts ...DispatchOption) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := c.Dispatch(ctx, req, opts...)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}

// released closes the request body when the wrapped call fails. A guard that
// rejects the call never reaches the transport, which would otherwise close it.
type released struct {
	provider.RequestResponse[*http.Request, *http.Response]
}

func releaseOnError(inner provider.RequestResponse[*http.Request, *http.Response]) provider.RequestResponse[*http.Request, *http.Response] {
	return &released{inner}
}

func (r *released) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := r.RequestResponse.Execute(ctx, req)
	if err != nil && req != nil && req.Body != nil {
		_ = req.Body.Close()
	}
	return resp, err
}

func (r *released) Close(ctx context.Context) error {
	return provider.CloseIfCloseable(ctx, r.RequestResponse)
}

func (c *Client) buildRequest(ctx context.Context, ex *exchange) (*http.Request, error) {
	httpReq, err := BuildRequest(ctx, ex.req, ex.opts...)
	if err != nil {
		return nil, err
	}
	if body, ok := httpReq.Body.(*Body); ok && c.metrics != nil {
		body.observe = func(n int) { c.metrics.RecordBodyBytes(ctx, c.name, "out", n) }
	}
	return httpReq, nil
}

func (c *Client) translateResponse(resp *http.Response) (*Response, error) {
	if resp == nil {
		return nil, newError(ErrCodeTransport, nil, "DispatchError: transport returned no response")
	}
	return TranslateResponse(resp, c.readBufferSize)
}
