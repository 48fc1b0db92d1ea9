package testutil_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/sigdispatch/component"
	"github.com/kbukum/sigdispatch/testutil"
)

func TestTransport_RecordsAndResponds(t *testing.T) {
	tr := testutil.NewTransport("fake", testutil.Respond(201, "done", "X-Foo", "a", "X-Foo", "b"))

	req, _ := http.NewRequest(http.MethodPut, "https://example.com/obj", strings.NewReader("payload"))
	req.Header.Set("X-Amz-Date", "20240101T000000Z")
	resp, err := tr.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
	if got := resp.Header.Values("X-Foo"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "done" {
		t.Errorf("expected done, got %q", body)
	}

	last, ok := tr.Last()
	if !ok {
		t.Fatal("expected a recorded request")
	}
	if last.Method != http.MethodPut || last.URL != "https://example.com/obj" {
		t.Errorf("unexpected request line: %s %s", last.Method, last.URL)
	}
	if string(last.Body) != "payload" {
		t.Errorf("expected payload, got %q", last.Body)
	}
	if last.Header.Get("X-Amz-Date") != "20240101T000000Z" {
		t.Errorf("expected header to be recorded, got %v", last.Header)
	}
}

func TestTransport_RespondError(t *testing.T) {
	boom := errors.New("connection reset")
	tr := testutil.NewTransport("fake", testutil.RespondError(boom))
	req, _ := http.NewRequest(http.MethodGet, "https://example.com/", nil)
	if _, err := tr.Execute(context.Background(), req); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}

func TestTransport_Lifecycle(t *testing.T) {
	tr := testutil.NewTransport("fake", testutil.Respond(200, ""))
	h := testutil.T(t)
	h.Setup(tr)

	if tr.Health(context.Background()).Status != component.StatusHealthy {
		t.Error("expected healthy after Setup")
	}

	req, _ := http.NewRequest(http.MethodGet, "https://example.com/", nil)
	_, _ = tr.Execute(context.Background(), req)
	snap := h.Snapshot(tr)

	_, _ = tr.Execute(context.Background(), req)
	if len(tr.Requests()) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(tr.Requests()))
	}

	h.Restore(tr, snap)
	if len(tr.Requests()) != 1 {
		t.Errorf("expected 1 request after restore, got %d", len(tr.Requests()))
	}

	h.Reset(tr)
	if len(tr.Requests()) != 0 {
		t.Errorf("expected 0 requests after reset, got %d", len(tr.Requests()))
	}
}

func TestTransport_Availability(t *testing.T) {
	tr := testutil.NewTransport("fake", testutil.Respond(200, ""))
	if !tr.IsAvailable(context.Background()) {
		t.Error("expected available by default")
	}
	tr.SetAvailable(false)
	if tr.IsAvailable(context.Background()) {
		t.Error("expected unavailable")
	}
}

func TestChunkStream_PlaysSteps(t *testing.T) {
	boom := errors.New("disk read failed")
	s := testutil.NewChunkStream(testutil.Chunk("a"), testutil.After(5*time.Millisecond, "b"), testutil.FailWith(boom))

	for _, want := range []string{"a", "b"} {
		chunk, ok, err := s.Next(context.Background())
		if err != nil || !ok {
			t.Fatalf("expected chunk %q, got ok=%v err=%v", want, ok, err)
		}
		if string(chunk) != want {
			t.Errorf("expected %q, got %q", want, chunk)
		}
	}
	if _, _, err := s.Next(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
	if _, ok, err := s.Next(context.Background()); ok || err != nil {
		t.Errorf("expected end, got ok=%v err=%v", ok, err)
	}
	if s.Pulls() != 4 {
		t.Errorf("expected 4 pulls, got %d", s.Pulls())
	}
}

func TestChunkStream_DelayHonoursContext(t *testing.T) {
	s := testutil.NewChunkStream(testutil.After(time.Minute, "late"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, _, err := s.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestChunkStream_Close(t *testing.T) {
	s := testutil.NewChunkStream(testutil.Chunk("a"))
	_ = s.Close()
	if !s.Closed() {
		t.Error("expected closed")
	}
	if _, ok, _ := s.Next(context.Background()); ok {
		t.Error("expected end after close")
	}
}

func TestChunkBody_ReusesBuffer(t *testing.T) {
	b := testutil.NewChunkBody("abc", "de")
	first, err := b.ReadChunk()
	if err != nil || string(first) != "abc" {
		t.Fatalf("expected abc, got %q (%v)", first, err)
	}
	b.Scribble('x')
	if string(first) != "xxx" {
		t.Errorf("expected the view to share the buffer, got %q", first)
	}
	second, _ := b.ReadChunk()
	if string(second) != "de" {
		t.Errorf("expected de, got %q", second)
	}
	if _, err := b.ReadChunk(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestChunkBody_Read(t *testing.T) {
	b := testutil.NewChunkBody("hello ", "world").WithError(io.ErrUnexpectedEOF)
	data, err := io.ReadAll(b)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("expected hello world, got %q", data)
	}
	_ = b.Close()
	if !b.Closed() {
		t.Error("expected closed")
	}
}

type lifecycleComponent struct {
	name     string
	startErr error
	stopErr  error
	started  bool
	resets   int
	order    *[]string
}

func (c *lifecycleComponent) Name() string { return c.name }
func (c *lifecycleComponent) Start(context.Context) error {
	if c.startErr != nil {
		return c.startErr
	}
	c.started = true
	return nil
}
func (c *lifecycleComponent) Stop(context.Context) error {
	if c.order != nil {
		*c.order = append(*c.order, c.name)
	}
	c.started = false
	return c.stopErr
}
func (c *lifecycleComponent) Health(context.Context) component.Health {
	return component.Health{Name: c.name, Status: component.StatusHealthy}
}
func (c *lifecycleComponent) Reset(context.Context) error                  { c.resets++; return nil }
func (c *lifecycleComponent) Snapshot(context.Context) (interface{}, error) { return nil, nil }
func (c *lifecycleComponent) Restore(context.Context, interface{}) error    { return nil }

func TestSetup(t *testing.T) {
	c := &lifecycleComponent{name: "c"}
	cleanup, err := testutil.Setup(c)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if !c.started {
		t.Error("expected component to be started")
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup failed: %v", err)
	}
	if c.started {
		t.Error("expected component to be stopped")
	}

	if _, err := testutil.Setup(&lifecycleComponent{name: "bad", startErr: errors.New("no")}); err == nil {
		t.Error("expected Setup to fail")
	}
}

func TestManager(t *testing.T) {
	order := []string{}
	errB := errors.New("b stop failed")
	a := &lifecycleComponent{name: "a", order: &order}
	b := &lifecycleComponent{name: "b", order: &order, stopErr: errB}
	tr := testutil.NewTransport("fake", testutil.Respond(200, ""))

	m := testutil.NewManager(context.Background())
	m.Add(a)
	m.Add(b)
	m.Add(tr)

	if err := m.StartAll(); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if m.Get("fake") != tr {
		t.Error("expected Get to find the transport")
	}
	if m.Get("missing") != nil {
		t.Error("expected nil for unknown component")
	}

	if err := m.ResetAll(); err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}
	if a.resets != 1 || b.resets != 1 {
		t.Errorf("expected one reset each, got %d/%d", a.resets, b.resets)
	}

	err := m.Cleanup()
	if !errors.Is(err, errB) {
		t.Errorf("expected stop error from b, got %v", err)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Errorf("expected reverse stop order [b a], got %v", order)
	}
}

func TestManager_StartFailure(t *testing.T) {
	m := testutil.NewManager(context.Background())
	m.Add(&lifecycleComponent{name: "bad", startErr: errors.New("refused")})
	err := m.StartAll()
	if err == nil || !strings.Contains(err.Error(), "failed to start component bad") {
		t.Errorf("unexpected error: %v", err)
	}
}
