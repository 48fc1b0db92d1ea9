package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/kbukum/sigdispatch/component"
)

// RecordedRequest is what a Transport saw of one request.
type RecordedRequest struct {
	Method        string
	URL           string
	Host          string
	Header        http.Header
	ContentLength int64
	Body          []byte
}

// Responder produces the response for a recorded request.
type Responder func(req *http.Request) (*http.Response, error)

// Respond answers every request with status and body. headers are
// name/value pairs added in order.
func Respond(status int, body string, headers ...string) Responder {
	return func(req *http.Request) (*http.Response, error) {
		h := make(http.Header)
		for i := 0; i+1 < len(headers); i += 2 {
			h.Add(headers[i], headers[i+1])
		}
		return &http.Response{
			StatusCode: status,
			Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
			Header:     h,
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

// RespondError fails every request with err.
func RespondError(err error) Responder {
	return func(*http.Request) (*http.Response, error) { return nil, err }
}

// Transport is an in-memory transport that drains and records each request
// body before answering.
type Transport struct {
	name    string
	respond Responder

	mu          sync.Mutex
	requests    []RecordedRequest
	unavailable bool
	started     bool
}

// compile-time assertion
var _ TestComponent = (*Transport)(nil)

// NewTransport creates a recording transport.
func NewTransport(name string, respond Responder) *Transport {
	return &Transport{name: name, respond: respond}
}

// Name returns the transport name.
func (t *Transport) Name() string { return t.name }

// IsAvailable reports the availability set with SetAvailable. Defaults to true.
func (t *Transport) IsAvailable(_ context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.unavailable
}

// SetAvailable changes what IsAvailable reports.
func (t *Transport) SetAvailable(available bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unavailable = !available
}

// Execute records req, closes its body and returns the responder's answer.
func (t *Transport) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.requests = append(t.requests, RecordedRequest{
		Method:        req.Method,
		URL:           req.URL.String(),
		Host:          req.Host,
		Header:        req.Header.Clone(),
		ContentLength: req.ContentLength,
		Body:          body,
	})
	t.mu.Unlock()

	return t.respond(req)
}

// Requests returns a copy of every recorded request.
func (t *Transport) Requests() []RecordedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]RecordedRequest(nil), t.requests...)
}

// Last returns the most recent request.
func (t *Transport) Last() (RecordedRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return RecordedRequest{}, false
	}
	return t.requests[len(t.requests)-1], true
}

// Start marks the transport started.
func (t *Transport) Start(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = true
	return nil
}

// Stop marks the transport stopped.
func (t *Transport) Stop(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	return nil
}

// Health reports healthy while started.
func (t *Transport) Health(_ context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()
	status := component.StatusUnhealthy
	if t.started {
		status = component.StatusHealthy
	}
	return component.Health{Name: t.name, Status: status}
}

// Reset forgets every recorded request.
func (t *Transport) Reset(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = nil
	return nil
}

// Snapshot captures the recorded requests.
func (t *Transport) Snapshot(_ context.Context) (interface{}, error) {
	return t.Requests(), nil
}

// Restore replaces the recorded requests with a snapshot.
func (t *Transport) Restore(_ context.Context, snapshot interface{}) error {
	requests, ok := snapshot.([]RecordedRequest)
	if !ok {
		return fmt.Errorf("testutil: unexpected snapshot type %T", snapshot)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append([]RecordedRequest(nil), requests...)
	return nil
}
