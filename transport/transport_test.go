package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestFunc(t *testing.T) {
	tr := Func("fn", func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 418, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	if tr.Name() != "fn" {
		t.Errorf("expected name fn, got %s", tr.Name())
	}
	if !tr.IsAvailable(context.Background()) {
		t.Error("expected Func transport to be available")
	}
	resp, err := tr.Execute(context.Background(), httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 418 {
		t.Errorf("expected 418, got %d", resp.StatusCode)
	}
}

func TestFromRoundTripper(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")

	tr := FromRoundTripper("rt", roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.Context().Value(ctxKey{}) != "v" {
			t.Error("expected execute context on the request")
		}
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}))
	resp, err := tr.Execute(ctx, httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestFromRoundTripper_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		timeout bool
	}{
		{"refused", errors.New("connection refused"), false},
		{"net timeout", timeoutErr{}, true},
		{"deadline", context.DeadlineExceeded, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := FromRoundTripper("rt", roundTripFunc(func(*http.Request) (*http.Response, error) {
				return nil, tc.err
			}))
			_, err := tr.Execute(context.Background(), httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
			if IsTimeout(err) != tc.timeout {
				t.Errorf("expected timeout=%v, got %v", tc.timeout, err)
			}
			if !tc.timeout && !IsConnection(err) {
				t.Errorf("expected connection error, got %v", err)
			}
			if !errors.Is(err, tc.err) {
				t.Errorf("expected cause in chain, got %v", err)
			}
		})
	}
}

func TestErrorCodeString(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeTimeout:     "timeout",
		ErrCodeConnection:  "connection",
		ErrCodeUnavailable: "unavailable",
		ErrorCode(99):      "unknown",
	}
	for code, want := range tests {
		if got := code.String(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewConnectionError(errors.New("dial tcp: refused"))
	if err.Error() != "transport: connection: dial tcp: refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
