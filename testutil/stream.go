package testutil

import (
	"context"
	"io"
	"sync"
	"time"
)

// Step is one scripted outcome of a ChunkStream pull.
type Step struct {
	// Delay parks the pull before the outcome is delivered.
	Delay time.Duration
	// Chunk is the delivered chunk when Err is nil.
	Chunk []byte
	// Err fails the pull.
	Err error
}

// Chunk returns a step delivering s immediately.
func Chunk(s string) Step { return Step{Chunk: []byte(s)} }

// After returns a step delivering s once d has elapsed.
func After(d time.Duration, s string) Step { return Step{Delay: d, Chunk: []byte(s)} }

// FailWith returns a step failing the pull with err.
func FailWith(err error) Step { return Step{Err: err} }

// ChunkStream is a scripted chunk source. After its steps run out it reports end.
// It is safe for use from the goroutine writing a request body.
type ChunkStream struct {
	mu     sync.Mutex
	steps  []Step
	pos    int
	pulls  int
	closed bool
}

// NewChunkStream creates a stream that plays steps in order.
func NewChunkStream(steps ...Step) *ChunkStream {
	return &ChunkStream{steps: steps}
}

// Next plays the next step. A delay is abandoned when ctx is done.
func (s *ChunkStream) Next(ctx context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	s.pulls++
	if s.closed || s.pos >= len(s.steps) {
		s.mu.Unlock()
		return nil, false, nil
	}
	step := s.steps[s.pos]
	s.pos++
	s.mu.Unlock()

	if step.Delay > 0 {
		timer := time.NewTimer(step.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-timer.C:
		}
	}
	if step.Err != nil {
		return nil, false, step.Err
	}
	return step.Chunk, true, nil
}

// Close marks the stream closed; later pulls report end.
func (s *ChunkStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *ChunkStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pulls returns how many times Next was called.
func (s *ChunkStream) Pulls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls
}

// ChunkBody is a response body that returns each chunk as a view of one
// reused buffer. After the chunks it returns its end error (io.EOF by default).
type ChunkBody struct {
	chunks  [][]byte
	pos     int
	buf     []byte
	pending []byte
	end     error
	closed  bool
}

// NewChunkBody creates a body yielding chunks in order.
func NewChunkBody(chunks ...string) *ChunkBody {
	b := &ChunkBody{end: io.EOF}
	for _, c := range chunks {
		b.chunks = append(b.chunks, []byte(c))
	}
	return b
}

// WithError makes the body fail with err once the chunks are used up.
func (b *ChunkBody) WithError(err error) *ChunkBody {
	b.end = err
	return b
}

// ReadChunk returns the next chunk as a view valid until the next call.
func (b *ChunkBody) ReadChunk() ([]byte, error) {
	if b.pos >= len(b.chunks) {
		return nil, b.end
	}
	b.buf = append(b.buf[:0], b.chunks[b.pos]...)
	b.pos++
	return b.buf, nil
}

// Read implements io.Reader over the same chunks.
func (b *ChunkBody) Read(p []byte) (int, error) {
	if len(b.pending) == 0 {
		chunk, err := b.ReadChunk()
		if err != nil {
			return 0, err
		}
		b.pending = chunk
	}
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

// Scribble overwrites the shared buffer, as a transport reusing it would.
func (b *ChunkBody) Scribble(c byte) {
	for i := range b.buf {
		b.buf[i] = c
	}
}

// Close marks the body closed.
func (b *ChunkBody) Close() error {
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *ChunkBody) Closed() bool { return b.closed }
