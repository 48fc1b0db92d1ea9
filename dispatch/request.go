package dispatch

import (
	"context"
	"maps"
	"net/http"
	"net/textproto"
	"slices"
	"strconv"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/kbukum/sigdispatch/validation"
)

// SignedRequest is an already-signed API request. The dispatcher reads it
// and drains its Payload; it never re-signs or re-encodes anything.
type SignedRequest struct {
	// Method is the HTTP method token, e.g. "GET".
	Method string
	// Scheme is "http" or "https".
	Scheme string `validate:"required,oneof=http https"`
	// Hostname is the authority, optionally with a port.
	Hostname string `validate:"required"`
	// CanonicalPath is the already-encoded path, starting with "/".
	CanonicalPath string
	// CanonicalQuery is the already-encoded query without the leading "?".
	CanonicalQuery string
	// Headers maps a header name to its raw values in order.
	Headers map[string][][]byte
	// Payload is the request body; nil means no body.
	Payload Payload
}

// AddHeader appends a raw value under name.
func (r *SignedRequest) AddHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string][][]byte)
	}
	r.Headers[name] = append(r.Headers[name], []byte(value))
}

// URI returns scheme://hostname + path, with "?query" appended when the query is non-empty.
func (r *SignedRequest) URI() string {
	uri := r.Scheme + "://" + r.Hostname + r.CanonicalPath
	if r.CanonicalQuery != "" {
		uri += "?" + r.CanonicalQuery
	}
	return uri
}

// DispatchOption configures a single dispatch.
type DispatchOption func(*dispatchOptions)

type dispatchOptions struct {
	timeout *time.Duration
}

// WithTimeout requests a per-dispatch timeout. Timeouts belong to the caller's
// context, so every dispatch given this option fails with ErrCodeUnsupportedOption.
func WithTimeout(d time.Duration) DispatchOption {
	return func(o *dispatchOptions) { o.timeout = &d }
}

func applyDispatchOptions(opts []DispatchOption) dispatchOptions {
	var o dispatchOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var methods = map[string]string{
	"GET":    http.MethodGet,
	"HEAD":   http.MethodHead,
	"POST":   http.MethodPost,
	"PUT":    http.MethodPut,
	"DELETE": http.MethodDelete,
}

// BuildRequest translates a SignedRequest into an *http.Request whose body
// is a Body over the request's payload. The request's header map is exactly
// the translated signed headers; nothing is added.
func BuildRequest(ctx context.Context, req *SignedRequest, opts ...DispatchOption) (*http.Request, error) {
	o := applyDispatchOptions(opts)
	if o.timeout != nil {
		return nil, NewUnsupportedOptionError("timeout")
	}
	if req == nil {
		return nil, newError(ErrCodeInvalidRequest, nil, "signed request is nil")
	}

	method, ok := methods[req.Method]
	if !ok {
		return nil, NewUnsupportedMethodError(req.Method)
	}

	if err := validation.Validate(req); err != nil {
		return nil, newError(ErrCodeInvalidRequest, err, "invalid signed request: %v", err)
	}

	headers, err := translateHeaders(req.Headers)
	if err != nil {
		return nil, err
	}

	body := NewBody(ctx, req.Payload)
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URI(), body)
	if err != nil {
		return nil, newError(ErrCodeRequestBuild, err, "RequestBuildingError: %v", err)
	}

	httpReq.ContentLength = contentLength(req.Payload, headers)
	if httpReq.ContentLength == 0 {
		_ = body.Close()
		httpReq.Body = http.NoBody
	}

	httpReq.Header = headers
	if host := headers.Get("Host"); host != "" {
		httpReq.Host = host
	}
	return httpReq, nil
}

// translateHeaders validates and copies signed headers in sorted name order,
// keeping every value and its order.
func translateHeaders(in map[string][][]byte) (http.Header, error) {
	out := make(http.Header, len(in))
	for _, name := range slices.Sorted(maps.Keys(in)) {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, newError(ErrCodeInvalidHeaderName, nil, "invalid header name %q", name)
		}
		key := textproto.CanonicalMIMEHeaderKey(name)
		for _, raw := range in[name] {
			value := string(raw)
			if !httpguts.ValidHeaderFieldValue(value) {
				return nil, newError(ErrCodeInvalidHeaderValue, nil, "invalid value for header %q", name)
			}
			out[key] = append(out[key], value)
		}
	}
	return out, nil
}

// contentLength returns the outbound length: 0 for no body, the buffered
// size, or for a stream its size hint or signed Content-Length. -1 means unknown.
func contentLength(p Payload, headers http.Header) int64 {
	switch p := p.(type) {
	case nil:
		return 0
	case *BufferedPayload:
		return int64(p.Len())
	case *StreamingPayload:
		if p == nil {
			return 0
		}
		if size, ok := p.SizeHint(); ok {
			return size
		}
		if n, err := strconv.ParseInt(headers.Get("Content-Length"), 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	return -1
}
