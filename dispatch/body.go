package dispatch

import (
	"context"
	"io"
	"net/http"
)

// Body presents a Payload through the pull interface the transport reads
// request bodies with. It is both a chunk-granular source (Next) and an
// io.ReadCloser for net/http.
type Body struct {
	ctx     context.Context
	payload Payload
	cur     []byte
	err     error
	observe func(n int)
}

// NewBody returns a Body over p. Streaming sources are pulled with ctx.
func NewBody(ctx context.Context, p Payload) *Body {
	return &Body{ctx: ctx, payload: p}
}

// Next returns the next chunk, or io.EOF at end-of-data.
//
// An absent payload ends immediately. A buffered payload yields its whole
// remaining contents as one chunk. A streaming payload forwards each chunk of
// its source unchanged and parks while the source is not ready. Source errors
// are returned as ErrCodeIO errors. End and errors are sticky.
func (b *Body) Next() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}

	switch p := b.payload.(type) {
	case *BufferedPayload:
		if chunk := p.take(); len(chunk) > 0 {
			b.record(len(chunk))
			return chunk, nil
		}
		b.err = io.EOF
	case *StreamingPayload:
		chunk, ok, err := p.next(b.ctx)
		switch {
		case err != nil:
			b.err = NewIOError(err)
		case !ok:
			b.err = io.EOF
		default:
			b.record(len(chunk))
			return chunk, nil
		}
	default:
		b.err = io.EOF
	}
	return nil, b.err
}

// Read implements io.Reader, draining the current chunk before pulling the next.
func (b *Body) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(b.cur) == 0 {
		chunk, err := b.Next()
		if err != nil {
			return 0, err
		}
		b.cur = chunk
	}
	n := copy(p, b.cur)
	b.cur = b.cur[n:]
	return n, nil
}

// Close releases a streaming source. Further pulls report end-of-data.
func (b *Body) Close() error {
	b.cur = nil
	if b.err == nil {
		b.err = io.EOF
	}
	if p, ok := b.payload.(*StreamingPayload); ok && p != nil {
		return p.close()
	}
	return nil
}

// Trailers always returns nil; request trailers are never produced.
func (b *Body) Trailers() http.Header {
	return nil
}

func (b *Body) record(n int) {
	if b.observe != nil {
		b.observe(n)
	}
}
