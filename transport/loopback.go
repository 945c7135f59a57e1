package transport

import (
	"bytes"
	"context"
	"sync"
)

// Loopback is an in-process Transport for unit tests. It behaves like the
// physical half-duplex cable: every Write is immediately echoed back to
// the read side. Echoes and Reply data share one FIFO buffer, so bytes are
// read in the order Write and Reply added them; a test queues a reply once
// the request has been written, so it is read behind that request's echo,
// and exercises a framer or session exactly as it would against real
// hardware.
type Loopback struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  bytes.Buffer
}

// NewLoopback returns an empty Loopback transport.
func NewLoopback() *Loopback {
	l := &Loopback{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *Loopback) Open(ctx context.Context) error { return nil }

// Reply queues bytes to be delivered to the next ReadExact calls, after
// any pending echo.
func (l *Loopback) Reply(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(data)
	l.cond.Broadcast()
}

func (l *Loopback) Write(ctx context.Context, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(data) // self-echo
	l.cond.Broadcast()
	return nil
}

func (l *Loopback) ReadExact(ctx context.Context, n int) ([]byte, error) {
	return readExact(ctx, &lockedReader{l}, n)
}

func (l *Loopback) ReadAvailable() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]byte, l.buf.Len())
	copy(out, l.buf.Bytes())
	l.buf.Reset()
	return out, nil
}

func (l *Loopback) Drain() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Reset()
	return nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cond.Broadcast()
	return nil
}

// lockedReader adapts Loopback's mutex-guarded buffer to io.Reader without
// exposing the buffer directly. Read blocks until data is available so it
// composes with readExact's per-call goroutine without busy-spinning.
type lockedReader struct {
	l *Loopback
}

func (r *lockedReader) Read(p []byte) (int, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for r.l.buf.Len() == 0 {
		r.l.cond.Wait()
	}
	return r.l.buf.Read(p)
}
