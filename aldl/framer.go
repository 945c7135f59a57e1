package aldl

import (
	"context"
	"time"

	"github.com/kingai-forge/aldlflash/transport"
)

// DefaultTimeout is the per-attempt deadline used when Framer.Timeout is
// zero.
const DefaultTimeout = 2 * time.Second

// Framer drives request/reply exchanges over a transport.Transport: it
// encodes a request, writes it, discards the self-echo, reads and
// decodes a reply, and retries the whole attempt on any failure.
type Framer struct {
	T       transport.Transport
	Retries int
	Timeout time.Duration
	OnRetry func(attempt int, err error)
}

// New returns a Framer over t with the given retry budget and per-attempt
// timeout. A timeout of zero uses DefaultTimeout.
func New(t transport.Transport, retries int, timeout time.Duration) *Framer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Framer{T: t, Retries: retries, Timeout: timeout}
}

// Exchange writes req, discards its self-echo, and waits for a reply
// whose mode equals expectedMode. It retries the full round trip up to
// fr.Retries additional times on any decode failure, timeout, or mode
// mismatch, returning the last error wrapped in a *TimeoutError once the
// budget is exhausted.
func (fr *Framer) Exchange(ctx context.Context, req Frame, expectedMode byte) (Frame, error) {
	wire := Encode(req)
	var lastErr error

	for attempt := 0; attempt <= fr.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		reply, err := fr.attempt(ctx, wire, expectedMode)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if fr.OnRetry != nil {
			fr.OnRetry(attempt, err)
		}
	}

	return Frame{}, &TimeoutError{Mode: req.Mode, Attempts: fr.Retries + 1, Last: lastErr}
}

func (fr *Framer) attempt(ctx context.Context, wire []byte, expectedMode byte) (Frame, error) {
	actx, cancel := context.WithTimeout(ctx, fr.Timeout)
	defer cancel()

	if err := fr.T.Write(actx, wire); err != nil {
		return Frame{}, err
	}

	// Half-duplex self-echo: discard exactly as many bytes as were sent.
	if _, err := fr.T.ReadExact(actx, len(wire)); err != nil {
		return Frame{}, err
	}

	reply, err := fr.readFrame(actx)
	if err != nil {
		return Frame{}, err
	}
	if reply.Mode != expectedMode {
		return Frame{}, &ModeMismatchError{Expected: expectedMode, Got: reply.Mode}
	}
	return reply, nil
}

// readFrame reads one complete frame: device id, length byte, then
// however many bytes the length byte says remain.
func (fr *Framer) readFrame(ctx context.Context) (Frame, error) {
	head, err := fr.T.ReadExact(ctx, 2)
	if err != nil {
		return Frame{}, err
	}
	if head[0] != DeviceID {
		return Frame{}, &FrameError{Reason: "unexpected device id", Got: head[0]}
	}
	lb := head[1]
	if lb < MinLengthByte {
		return Frame{}, &FrameError{Reason: "invalid length byte", Got: lb}
	}
	wireLen := int(lb) - 82
	if wireLen > MaxWireBytes {
		return Frame{}, &FrameError{Reason: "frame too long", Got: lb}
	}

	rest, err := fr.T.ReadExact(ctx, wireLen-2)
	if err != nil {
		return Frame{}, err
	}

	full := make([]byte, 0, wireLen)
	full = append(full, head...)
	full = append(full, rest...)
	return Decode(full)
}
