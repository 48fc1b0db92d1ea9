package dispatch

import (
	"context"

	"github.com/kbukum/sigdispatch/provider"
)

// ChunkStream is an externally driven source of owned byte chunks.
// Next parks until a chunk is ready, and reports end with ok == false.
type ChunkStream = provider.Iterator[[]byte]

// Payload is the body of a SignedRequest. A nil Payload means no body;
// otherwise it is a *BufferedPayload or a *StreamingPayload.
//
// A payload is single-use: once observed exhausted it reports end-of-data
// forever.
type Payload interface {
	payload()
}

// BufferedPayload is a fully materialized body. Taking it drains it.
type BufferedPayload struct {
	buf []byte
}

// NewBufferedPayload returns a payload that owns b.
func NewBufferedPayload(b []byte) *BufferedPayload {
	return &BufferedPayload{buf: b}
}

func (*BufferedPayload) payload() {}

// Len returns the number of bytes not yet taken.
func (p *BufferedPayload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.buf)
}

// take hands over the remaining bytes and leaves the payload empty.
func (p *BufferedPayload) take() []byte {
	if p == nil || len(p.buf) == 0 {
		return nil
	}
	b := p.buf
	p.buf = nil
	return b
}

// StreamingPayload is a body produced incrementally by a ChunkStream.
type StreamingPayload struct {
	stream ChunkStream
	size   int64
	done   bool
}

// NewStreamingPayload returns a payload of unknown length backed by s.
func NewStreamingPayload(s ChunkStream) *StreamingPayload {
	return &StreamingPayload{stream: s, size: -1}
}

// NewSizedStreamingPayload returns a payload backed by s that will yield exactly size bytes.
func NewSizedStreamingPayload(s ChunkStream, size int64) *StreamingPayload {
	return &StreamingPayload{stream: s, size: size}
}

func (*StreamingPayload) payload() {}

// SizeHint returns the declared total length, if known.
func (p *StreamingPayload) SizeHint() (int64, bool) {
	return p.size, p.size >= 0
}

// next pulls the next chunk from the source. Once the source signals end
// the source is never polled again.
func (p *StreamingPayload) next(ctx context.Context) ([]byte, bool, error) {
	if p == nil || p.done || p.stream == nil {
		return nil, false, nil
	}
	chunk, ok, err := p.stream.Next(ctx)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		p.done = true
		return nil, false, nil
	}
	return chunk, true, nil
}

// close releases the source and marks the payload exhausted.
func (p *StreamingPayload) close() error {
	p.done = true
	s := p.stream
	p.stream = nil
	if s == nil {
		return nil
	}
	return s.Close()
}
