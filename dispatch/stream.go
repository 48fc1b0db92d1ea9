package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/kbukum/sigdispatch/provider"
)

// DefaultReadBufferSize is the read buffer used for response bodies that do
// not expose their own chunks.
const DefaultReadBufferSize = 32 << 10

// ChunkReader is optionally implemented by response bodies that hold their
// data in buffers. ReadChunk returns a view that is valid until the next call,
// and io.EOF once the body is exhausted.
type ChunkReader interface {
	ReadChunk() ([]byte, error)
}

// maxEmptyReads bounds consecutive reads that return no data and no error.
const maxEmptyReads = 100

var errStreamClosed = &Error{Code: ErrCodeIO, Message: "body stream: closed"}

// ByteStream delivers a response body as owned byte chunks.
// It is not safe for concurrent use.
type ByteStream struct {
	body    io.ReadCloser
	chunks  ChunkReader
	buf     []byte
	bufSize int
	err     error
	closed  bool
	observe func(n int)
}

// compile-time assertion
var _ provider.Iterator[[]byte] = (*ByteStream)(nil)

// NewByteStream wraps body. bufSize <= 0 selects DefaultReadBufferSize.
// A nil body is an empty stream.
func NewByteStream(body io.ReadCloser, bufSize int) *ByteStream {
	if body == nil {
		body = http.NoBody
	}
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}
	s := &ByteStream{body: body, bufSize: bufSize}
	if cr, ok := body.(ChunkReader); ok {
		s.chunks = cr
	}
	return s
}

// Next returns the next chunk of the body as a freshly allocated slice.
// It returns (nil, false, nil) at end of body. Read failures are returned as
// ErrCodeIO errors. Both outcomes are terminal: the body is closed and every
// later call repeats them.
func (s *ByteStream) Next(ctx context.Context) ([]byte, bool, error) {
	if s.err != nil {
		return s.terminal()
	}
	if err := ctx.Err(); err != nil {
		s.finish(err)
		return s.terminal()
	}

	for empty := 0; ; empty++ {
		if empty >= maxEmptyReads {
			s.finish(io.ErrNoProgress)
			return s.terminal()
		}
		view, err := s.pull()
		if len(view) > 0 {
			chunk := bytes.Clone(view)
			if err != nil {
				s.finish(err)
			}
			s.record(len(chunk))
			return chunk, true, nil
		}
		if err != nil {
			s.finish(err)
			return s.terminal()
		}
	}
}

// pull reads the next buffer view from the body.
func (s *ByteStream) pull() ([]byte, error) {
	if s.chunks != nil {
		return s.chunks.ReadChunk()
	}
	if s.buf == nil {
		s.buf = make([]byte, s.bufSize)
	}
	n, err := s.body.Read(s.buf)
	return s.buf[:n], err
}

// finish records the terminal state and releases the body.
func (s *ByteStream) finish(err error) {
	if errors.Is(err, io.EOF) {
		s.err = io.EOF
	} else {
		s.err = NewIOError(err)
	}
	s.release()
}

func (s *ByteStream) terminal() ([]byte, bool, error) {
	if s.err == io.EOF {
		return nil, false, nil
	}
	return nil, false, s.err
}

// Close releases the body. It is safe to call more than once; Next after
// Close fails unless the stream had already ended.
func (s *ByteStream) Close() error {
	if s.err == nil {
		s.err = errStreamClosed
	}
	return s.release()
}

func (s *ByteStream) release() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.buf = nil
	return s.body.Close()
}

// ReadAll collects the remaining chunks into one slice.
func (s *ByteStream) ReadAll(ctx context.Context) ([]byte, error) {
	var out []byte
	for {
		chunk, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, chunk...)
	}
}

func (s *ByteStream) record(n int) {
	if s.observe != nil {
		s.observe(n)
	}
}
