package aldlcore

import (
	"context"
	"fmt"
	"time"

	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/image"
	"github.com/kingai-forge/aldlflash/session"
	"github.com/kingai-forge/aldlflash/transport"
)

// TransportSpec selects the physical link Open establishes.
type TransportSpec struct {
	// SerialPort is the OS device path of a USB-to-ALDL cable, e.g.
	// "/dev/ttyUSB0" or "COM3".
	SerialPort string

	// BaudRate overrides the ALDL bus's default rate. Zero selects the
	// default.
	BaudRate int
}

// ProgressFunc reports progress for a long-running Session operation.
type ProgressFunc func(stage string, done, total int)

// EcuInfo is the identity Info reports.
type EcuInfo struct {
	Manufacturer byte
	Device       byte
}

// Session is the facade a caller drives: one open link, five verbs.
// Each of ReadImage, WriteImage, and Info independently runs the full
// silence/authenticate/enter-programming/upload-kernel sequence and
// cleans up afterward, so callers never touch session.Session directly.
type Session struct {
	s *session.Session
}

// Open establishes spec's transport and returns a Session in its idle
// state, ready for ReadImage, WriteImage, Datalog, or Info.
func Open(ctx context.Context, spec TransportSpec, opts ...session.Option) (*Session, error) {
	t := transport.NewSerial(transport.SerialConfig{Port: spec.SerialPort, BaudRate: spec.BaudRate})
	return OpenTransport(ctx, t, opts...)
}

// OpenTransport is Open generalized over any transport.Transport, for a
// virtual ECU in tests or an alternate link the caller already built.
func OpenTransport(ctx context.Context, t transport.Transport, opts ...session.Option) (*Session, error) {
	s, err := session.Open(ctx, t, opts...)
	if err != nil {
		return nil, err
	}
	return &Session{s: s}, nil
}

// Close releases the underlying transport.
func (cs *Session) Close() error {
	return cs.s.Close()
}

func (cs *Session) bringUp(ctx context.Context) error {
	for _, step := range []func(context.Context) error{
		cs.s.Silence, cs.s.Authenticate, cs.s.EnterProgramming, cs.s.UploadKernel,
	} {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ReadImage reads the ECU's entire flash into memory.
func (cs *Session) ReadImage(ctx context.Context, progress ProgressFunc) (*image.Image, error) {
	if err := cs.bringUp(ctx); err != nil {
		return nil, fmt.Errorf("aldlcore: read image: %w", err)
	}
	defer cs.s.Cleanup(ctx)

	var pf func(done, total int)
	if progress != nil {
		pf = func(done, total int) { progress("reading", done, total) }
	}
	img, err := image.ReadFull(ctx, cs.s, pf)
	if err != nil {
		return nil, fmt.Errorf("aldlcore: read image: %w", err)
	}
	return img, nil
}

// WriteImage programs img into the ECU in the given mode, resuming from
// resume if non-nil, and returns the operation's report regardless of
// whether it ran to completion.
func (cs *Session) WriteImage(ctx context.Context, mode bankmap.Mode, img *image.Image, resume *image.Report, progress ProgressFunc) (*image.Report, error) {
	if err := cs.bringUp(ctx); err != nil {
		return nil, fmt.Errorf("aldlcore: write image: %w", err)
	}
	defer cs.s.Cleanup(ctx)

	stop := make(chan struct{})
	if progress != nil {
		go cs.watchProgress(stop, progress)
	}
	report, err := image.WriteImage(ctx, cs.s, mode, img, resume)
	close(stop)
	return report, err
}

// watchProgress polls the session's lock-free progress snapshot and
// forwards each new value to progress, until stop is closed.
func (cs *Session) watchProgress(stop <-chan struct{}, progress ProgressFunc) {
	var lastSeq uint64
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p, seq := cs.s.Progress()
			if seq == lastSeq {
				continue
			}
			lastSeq = seq
			progress(p.Stage, int(p.BytesDone), int(p.BytesTotal))
		}
	}
}

// Datalog starts a background worker polling the live datastream at
// interval, decoding each sample onto the returned channel. cancel is the
// cancellation token: calling it stops the worker; wait blocks until it
// has actually exited and returns its error. The session must be in its
// idle state (no prior ReadImage/WriteImage left it mid-operation); this
// is mutually exclusive with programming on the same Session.
func (cs *Session) Datalog(interval time.Duration) (records <-chan image.DatalogRecord, cancel context.CancelFunc, wait func() error) {
	ctx, cancel := context.WithCancel(context.Background())
	records, wait = image.DatalogStream(ctx, cs.s, interval)
	return records, cancel, wait
}

// Info runs the kernel bring-up just long enough to query flash identity.
func (cs *Session) Info(ctx context.Context) (EcuInfo, error) {
	if err := cs.bringUp(ctx); err != nil {
		return EcuInfo{}, fmt.Errorf("aldlcore: info: %w", err)
	}
	defer cs.s.Cleanup(ctx)

	manufacturer, device, err := cs.s.FlashInfo(ctx)
	if err != nil {
		return EcuInfo{}, fmt.Errorf("aldlcore: info: %w", err)
	}
	return EcuInfo{Manufacturer: manufacturer, Device: device}, nil
}
