package transport

import "context"

// Transport is the byte-level contract every link variant implements.
// Implementations do not know about ALDL frames; they move bytes and
// report timeouts.
type Transport interface {
	// Open establishes the link. Calling Open on an already-open
	// Transport is a no-op.
	Open(ctx context.Context) error

	// ReadExact blocks until exactly n bytes have been read or ctx is
	// done, whichever happens first. If ctx ends while bytes are still
	// outstanding, the returned error wraps ctx.Err()
	// (context.DeadlineExceeded for a deadline).
	ReadExact(ctx context.Context, n int) ([]byte, error)

	// ReadAvailable returns whatever bytes are immediately available
	// without blocking. It may return zero bytes.
	ReadAvailable() ([]byte, error)

	// Write sends data and blocks until it has been accepted by the
	// underlying link (not until any reply arrives).
	Write(ctx context.Context, data []byte) error

	// Drain discards any bytes currently buffered for reading, without
	// blocking.
	Drain() error

	// Close releases the link. Safe to call more than once.
	Close() error
}
