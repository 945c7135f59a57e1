package transport

import (
	"context"
	"io"
)

// Direct adapts a caller-supplied io.ReadWriter (a real device handle, a
// test double, anything) into a Transport. It performs no buffering of
// its own beyond what readExact needs.
type Direct struct {
	rw     io.ReadWriter
	closer io.Closer
}

// NewDirect wraps rw as a Transport. If rw also implements io.Closer,
// Close releases it.
func NewDirect(rw io.ReadWriter) *Direct {
	d := &Direct{rw: rw}
	if c, ok := rw.(io.Closer); ok {
		d.closer = c
	}
	return d
}

func (d *Direct) Open(ctx context.Context) error { return nil }

func (d *Direct) ReadExact(ctx context.Context, n int) ([]byte, error) {
	return readExact(ctx, d.rw, n)
}

func (d *Direct) ReadAvailable() ([]byte, error) {
	return nil, nil
}

func (d *Direct) Write(ctx context.Context, data []byte) error {
	_, err := d.rw.Write(data)
	return err
}

func (d *Direct) Drain() error { return nil }

func (d *Direct) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}
