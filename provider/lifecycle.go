package provider

import "context"

// Closeable is optionally implemented by providers that hold resources
// requiring explicit cleanup (e.g., idle connection pools).
type Closeable interface {
	Close(ctx context.Context) error
}

// CloseIfCloseable closes p when it implements Closeable.
func CloseIfCloseable(ctx context.Context, p Provider) error {
	if c, ok := p.(Closeable); ok {
		return c.Close(ctx)
	}
	return nil
}
