package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/kbukum/sigdispatch/provider"
)

// Transport sends a built request and returns the response with its body unread.
// As with http.RoundTripper, Execute must close the request body, including
// on errors, and the caller owns the response body.
type Transport interface {
	provider.RequestResponse[*http.Request, *http.Response]
}

// Func adapts a plain function to the Transport interface.
func Func(name string, fn func(ctx context.Context, req *http.Request) (*http.Response, error)) Transport {
	return provider.Func(name, fn)
}

// FromRoundTripper adapts an http.RoundTripper. Round-trip failures are
// classified as timeout or connection errors.
func FromRoundTripper(name string, rt http.RoundTripper) Transport {
	return &roundTripperTransport{name: name, rt: rt}
}

type roundTripperTransport struct {
	name string
	rt   http.RoundTripper
}

func (r *roundTripperTransport) Name() string                       { return r.name }
func (r *roundTripperTransport) IsAvailable(_ context.Context) bool { return true }

func (r *roundTripperTransport) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := r.rt.RoundTrip(withContext(ctx, req))
	if err != nil {
		return nil, classify(ctx, err)
	}
	return resp, nil
}

func withContext(ctx context.Context, req *http.Request) *http.Request {
	if req.Context() == ctx {
		return req
	}
	return req.WithContext(ctx)
}

// classify converts a round-trip failure into a transport Error.
func classify(ctx context.Context, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
