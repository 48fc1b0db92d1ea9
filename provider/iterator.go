package provider

import "context"

// Iterator provides pull-based sequential access to a stream of values.
// The consumer calls Next() to retrieve values one at a time.
// Close must be called when done to release resources.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// SliceIterator yields the items of a slice in order.
type SliceIterator[T any] struct {
	items  []T
	pos    int
	closed bool
}

// FromSlice returns an Iterator over items. The slice is not copied.
func FromSlice[T any](items ...T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

func (s *SliceIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.closed || s.pos >= len(s.items) {
		return zero, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}

// Close marks the iterator exhausted.
func (s *SliceIterator[T]) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *SliceIterator[T]) Closed() bool { return s.closed }
