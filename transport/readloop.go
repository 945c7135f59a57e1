package transport

import (
	"context"
	"fmt"
	"io"
	"time"
)

// pollInterval is the read timeout set on real serial ports so a Read
// call returns periodically even with no traffic, keeping readExact
// responsive to ctx without needing to abandon OS-level reads.
const pollInterval = 50 * time.Millisecond

type readResult struct {
	n   int
	err error
}

// readExact accumulates exactly n bytes from r, honoring ctx's deadline
// and cancellation. It is shared by every Transport backed by an
// io.Reader (direct, loopback, serial). Each underlying Read runs in its
// own goroutine so a reader that blocks past ctx's deadline (an io.Pipe
// with no writer, a serial port with no traffic) does not wedge the
// caller; the goroutine is abandoned and its eventual result discarded.
func readExact(ctx context.Context, r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		if err := ctx.Err(); err != nil {
			return buf, fmt.Errorf("transport: read %d/%d bytes: %w", len(buf), n, err)
		}

		chunk := make([]byte, n-len(buf))
		done := make(chan readResult, 1)
		go func() {
			nr, err := r.Read(chunk)
			done <- readResult{nr, err}
		}()

		select {
		case <-ctx.Done():
			return buf, fmt.Errorf("transport: read %d/%d bytes: %w", len(buf), n, ctx.Err())
		case res := <-done:
			if res.n > 0 {
				buf = append(buf, chunk[:res.n]...)
			}
			if res.err != nil && res.err != io.EOF {
				return buf, fmt.Errorf("transport: read error after %d/%d bytes: %w", len(buf), n, res.err)
			}
			if res.n == 0 && res.err == io.EOF && len(buf) < n {
				return buf, fmt.Errorf("transport: read %d/%d bytes: %w", len(buf), n, io.ErrUnexpectedEOF)
			}
		}
	}
	return buf, nil
}
