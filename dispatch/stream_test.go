package dispatch

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/kbukum/sigdispatch/testutil"
)

type closeTracker struct {
	io.Reader
	closes int
}

func (c *closeTracker) Close() error {
	c.closes++
	return nil
}

func TestByteStream_ChunksAreCopies(t *testing.T) {
	body := testutil.NewChunkBody("abc", "def")
	s := NewByteStream(body, 0)

	first, ok, err := s.Next(context.Background())
	if !ok || err != nil {
		t.Fatalf("expected chunk, got ok=%v err=%v", ok, err)
	}
	body.Scribble('x')
	if string(first) != "abc" {
		t.Errorf("expected earlier chunk to be unaffected, got %q", first)
	}

	second, _, _ := s.Next(context.Background())
	if string(second) != "def" {
		t.Errorf("expected def, got %q", second)
	}
	if string(first) != "abc" {
		t.Errorf("expected first chunk to survive the next pull, got %q", first)
	}
}

func TestByteStream_ReadBufferCopies(t *testing.T) {
	s := NewByteStream(io.NopCloser(strings.NewReader("abcdefghij")), 4)

	var chunks []string
	var kept [][]byte
	for {
		chunk, ok, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		kept = append(kept, chunk)
		chunks = append(chunks, string(chunk))
	}
	want := []string{"abcd", "efgh", "ij"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %v, got %v", want, chunks)
	}
	for i := range want {
		if string(kept[i]) != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], kept[i])
		}
	}
}

func TestByteStream_DataWithEOF(t *testing.T) {
	body := &closeTracker{Reader: iotest.DataErrReader(strings.NewReader("tail"))}
	s := NewByteStream(body, 0)

	chunk, ok, err := s.Next(context.Background())
	if !ok || err != nil || string(chunk) != "tail" {
		t.Fatalf("expected tail, got %q ok=%v err=%v", chunk, ok, err)
	}
	if body.closes != 1 {
		t.Errorf("expected body closed at end, got %d closes", body.closes)
	}
	if _, ok, err := s.Next(context.Background()); ok || err != nil {
		t.Errorf("expected end, got ok=%v err=%v", ok, err)
	}
}

func TestByteStream_EndIsSticky(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader("x")}
	s := NewByteStream(body, 0)

	_, _, _ = s.Next(context.Background())
	for i := 0; i < 3; i++ {
		if chunk, ok, err := s.Next(context.Background()); ok || err != nil || chunk != nil {
			t.Fatalf("pull %d: expected end, got %q ok=%v err=%v", i, chunk, ok, err)
		}
	}
	if body.closes != 1 {
		t.Errorf("expected exactly one close, got %d", body.closes)
	}
	if err := s.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
	if body.closes != 1 {
		t.Errorf("expected Close after end to be a no-op, got %d closes", body.closes)
	}
	if _, ok, err := s.Next(context.Background()); ok || err != nil {
		t.Errorf("expected end to survive Close, got ok=%v err=%v", ok, err)
	}
}

func TestByteStream_ErrorIsStickyIO(t *testing.T) {
	boom := errors.New("connection reset by peer")
	body := testutil.NewChunkBody("a").WithError(boom)
	s := NewByteStream(body, 0)

	if _, ok, err := s.Next(context.Background()); !ok || err != nil {
		t.Fatalf("expected first chunk, got ok=%v err=%v", ok, err)
	}
	_, ok, err := s.Next(context.Background())
	if ok || !IsIO(err) {
		t.Fatalf("expected io error, got ok=%v err=%v", ok, err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected cause in chain, got %v", err)
	}
	if !body.Closed() {
		t.Error("expected body closed after error")
	}
	for i := 0; i < 3; i++ {
		if _, _, again := s.Next(context.Background()); again != err {
			t.Fatalf("pull %d: expected the same error, got %v", i, again)
		}
	}
}

type stalledReader struct{ reads int }

func (r *stalledReader) Read(p []byte) (int, error) {
	r.reads++
	return 0, nil
}

func TestByteStream_StalledBodyFails(t *testing.T) {
	stalled := &stalledReader{}
	body := &closeTracker{Reader: stalled}
	s := NewByteStream(body, 0)

	_, ok, err := s.Next(context.Background())
	if ok || !IsIO(err) {
		t.Fatalf("expected io error, got ok=%v err=%v", ok, err)
	}
	if !errors.Is(err, io.ErrNoProgress) {
		t.Errorf("expected io.ErrNoProgress in chain, got %v", err)
	}
	if stalled.reads != maxEmptyReads {
		t.Errorf("expected %d reads, got %d", maxEmptyReads, stalled.reads)
	}
	if body.closes != 1 {
		t.Errorf("expected body closed once, got %d", body.closes)
	}
}

func TestByteStream_ErrorDoesNotAffectOtherStreams(t *testing.T) {
	failing := NewByteStream(testutil.NewChunkBody().WithError(errors.New("reset")), 0)
	healthy := NewByteStream(testutil.NewChunkBody("ok"), 0)

	if _, _, err := failing.Next(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	data, err := healthy.ReadAll(context.Background())
	if err != nil || string(data) != "ok" {
		t.Errorf("expected ok, got %q (%v)", data, err)
	}
}

func TestByteStream_CancelledContext(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader("unread")}
	s := NewByteStream(body, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := s.Next(ctx)
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got ok=%v err=%v", ok, err)
	}
	if body.closes != 1 {
		t.Errorf("expected body released, got %d closes", body.closes)
	}
	if _, _, err := s.Next(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation to be terminal, got %v", err)
	}
}

func TestByteStream_Close(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader("unread")}
	s := NewByteStream(body, 0)

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
	if body.closes != 1 {
		t.Errorf("expected one close, got %d", body.closes)
	}
	if _, _, err := s.Next(context.Background()); !IsIO(err) {
		t.Errorf("expected io error after close, got %v", err)
	}
}

func TestByteStream_NilBody(t *testing.T) {
	s := NewByteStream(nil, 0)
	data, err := s.ReadAll(context.Background())
	if err != nil || len(data) != 0 {
		t.Errorf("expected empty body, got %q (%v)", data, err)
	}
}

func TestByteStream_ReadAll(t *testing.T) {
	s := NewByteStream(testutil.NewChunkBody("hello ", "world"), 0)
	data, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("expected hello world, got %q", data)
	}
}

func TestByteStream_DefaultBufferSize(t *testing.T) {
	s := NewByteStream(io.NopCloser(strings.NewReader(strings.Repeat("x", DefaultReadBufferSize+10))), 0)
	chunk, _, _ := s.Next(context.Background())
	if len(chunk) != DefaultReadBufferSize {
		t.Errorf("expected %d byte chunk, got %d", DefaultReadBufferSize, len(chunk))
	}
}
