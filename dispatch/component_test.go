package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/sigdispatch/component"
	"github.com/kbukum/sigdispatch/testutil"
)

func TestComponent_Lifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Etag", `"v1"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewComponent(Config{Name: "uploader"})
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}

	testutil.T(t).Setup(c)

	h := c.Health(ctx)
	if h.Name != "uploader" || h.Status != component.StatusHealthy {
		t.Errorf("expected healthy uploader, got %+v", h)
	}

	resp, err := c.Client().Dispatch(ctx, newSigned(http.MethodHead, strings.TrimPrefix(srv.URL, "http://"), nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.HeaderValues("etag"); len(got) != 1 || got[0] != `"v1"` {
		t.Errorf("unexpected Etag: %v", got)
	}
	if c.Client().Name() != "uploader" {
		t.Errorf("expected client named after component, got %s", c.Client().Name())
	}
}

func TestComponent_InvalidConfig(t *testing.T) {
	c := NewComponent(Config{ReadBufferSize: 1})
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail")
	}
	if c.Client() != nil {
		t.Error("expected no client after failed start")
	}
}

func TestComponent_Describe(t *testing.T) {
	c := NewComponent(Config{})
	d := c.Describe()
	if d.Name != "dispatch" || d.Type != "dispatcher" {
		t.Errorf("unexpected description: %+v", d)
	}
	if d.Details != "transport=http read_buffer=32768" {
		t.Errorf("unexpected details: %q", d.Details)
	}
}

func TestComponent_Registry(t *testing.T) {
	r := component.NewRegistry()
	c := NewComponent(Config{Name: "uploader"})
	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if !r.Healthy(context.Background()) {
		t.Error("expected registry to be healthy")
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Errorf("StopAll failed: %v", err)
	}
}
