package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kingai-forge/aldlflash/aldl"
	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/kernel"
	"github.com/kingai-forge/aldlflash/transport"
)

// Session drives one programming session against an ECU over a
// transport.Transport. The zero value is not usable; use Open.
type Session struct {
	t  transport.Transport
	fr *aldl.Framer
	cfg Config

	state atomic.Int32
	busy  atomic.Bool

	progress *progressBox

	bank byte
}

// Open establishes the link and returns a Session in StateIdle. The
// returned Session owns t exclusively until Close.
func Open(ctx context.Context, t transport.Transport, opts ...Option) (*Session, error) {
	if t == nil {
		panic("session: Open called with nil transport")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := t.Open(ctx); err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}

	s := &Session{
		t:        t,
		fr:       aldl.New(t, cfg.FrameRetries, cfg.FrameTimeout),
		cfg:      cfg,
		progress: newProgressBox(),
		bank:     bankmap.Bank48,
	}
	s.state.Store(int32(StateIdle))
	return s, nil
}

// State returns the session's current lifecycle state. Safe to call from
// any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Progress returns the most recently published progress snapshot and its
// sequence number, for an observer goroutine that isn't driving the
// session directly.
func (s *Session) Progress() (Progress, uint64) {
	return s.progress.Snapshot()
}

// Close releases the underlying transport. Safe to call from any state,
// including StateFailed, and safe to call more than once.
func (s *Session) Close() error {
	return s.t.Close()
}

// ChunkSize returns the maximum number of bytes ProgramBytes accepts per
// call, so a caller driving a whole-image write knows how to split it.
func (s *Session) ChunkSize() int { return s.cfg.ChunkSize }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// fail transitions to StateFailed and returns err unchanged, for errors
// that leave the ECU's state unknown to this session.
func (s *Session) fail(err error) error {
	s.setState(StateFailed)
	s.cfg.Logger.Error("session failed", "error", err, "state", s.State().String())
	return err
}

func (s *Session) requireState(op string, want State) error {
	if have := s.State(); have != want {
		return &StateError{Op: op, Have: have, Want: want}
	}
	return nil
}

// enterOp claims exclusive use of the session for the duration of one
// operation, failing fast with ErrBusy if another is already in flight.
func (s *Session) enterOp() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Session) exitOp() { s.busy.Store(false) }

func (s *Session) report(stage string, done, total int64) {
	p := Progress{Stage: stage, BytesDone: done, BytesTotal: total}
	s.progress.publish(p)
	if s.cfg.ProgressCallback != nil {
		s.cfg.ProgressCallback(p)
	}
}

// exchange performs one request/reply round trip with a timeout distinct
// from the session's default FrameTimeout, for operations like sector
// erase whose natural duration is far longer than a normal exchange.
func (s *Session) exchange(ctx context.Context, frame aldl.Frame, expectedMode byte, timeout time.Duration) (aldl.Frame, error) {
	orig := s.fr.Timeout
	s.fr.Timeout = timeout
	defer func() { s.fr.Timeout = orig }()
	return s.fr.Exchange(ctx, frame, expectedMode)
}

func isTimeout(err error) bool {
	var te *aldl.TimeoutError
	return errors.As(err, &te)
}

// Silence sends the mode 8 request that stops the ECU's unsolicited
// datastream broadcast. Required before any other operation: while the
// ECU is chattering, replies to addressed requests race its own broadcast
// traffic on the bus.
func (s *Session) Silence(ctx context.Context) error {
	if err := s.enterOp(); err != nil {
		return err
	}
	defer s.exitOp()
	if err := s.requireState("Silence", StateIdle); err != nil {
		return err
	}

	if _, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 8}, 8); err != nil {
		return s.fail(&TransportError{Op: "silence", Err: err})
	}
	s.setState(StateSilenced)
	return nil
}

// Authenticate runs the mode 13 seed/key exchange: request a seed, derive
// the key via DeriveKey, and submit it. An ECU that returns an all-zero
// seed is already unlocked and the key step is skipped.
func (s *Session) Authenticate(ctx context.Context) error {
	if err := s.enterOp(); err != nil {
		return err
	}
	defer s.exitOp()
	if err := s.requireState("Authenticate", StateSilenced); err != nil {
		return err
	}

	seedReply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 13, Payload: []byte{0x01}}, 13)
	if err != nil {
		return s.fail(&TransportError{Op: "request seed", Err: err})
	}
	if len(seedReply.Payload) < 3 {
		return s.fail(&ProtocolError{Reason: "seed reply too short"})
	}
	seed := uint16(seedReply.Payload[1])<<8 | uint16(seedReply.Payload[2])

	if seed == 0 {
		s.setState(StateAuthenticated)
		return nil
	}

	key := DeriveKey(seed)
	keyReply, err := s.fr.Exchange(ctx, aldl.Frame{
		Mode:    13,
		Payload: []byte{0x02, byte(key >> 8), byte(key)},
	}, 13)
	if err != nil {
		return s.fail(&TransportError{Op: "submit key", Err: err})
	}
	if len(keyReply.Payload) < 2 || keyReply.Payload[1] != 0xAA {
		return s.fail(&AuthError{Reason: "key rejected"})
	}

	s.setState(StateAuthenticated)
	return nil
}

// EnterProgramming sends the mode 5 request that moves the ECU into
// programming mode. Requires a prior successful Authenticate.
func (s *Session) EnterProgramming(ctx context.Context) error {
	if err := s.enterOp(); err != nil {
		return err
	}
	defer s.exitOp()
	if err := s.requireState("EnterProgramming", StateAuthenticated); err != nil {
		return err
	}

	reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 5}, 5)
	if err != nil {
		return s.fail(&TransportError{Op: "enter programming", Err: err})
	}
	if len(reply.Payload) < 1 || reply.Payload[0] != 0xAA {
		return s.fail(&ProtocolError{Reason: "enter programming denied"})
	}

	s.setState(StateProgramming)
	return nil
}

// UploadKernel uploads the 3-block flash-driver kernel via mode 6, using
// the read-speed timing configured by WithHighSpeedRead. On success the
// erase, program, read, and checksum operations become legal.
func (s *Session) UploadKernel(ctx context.Context) error {
	if err := s.enterOp(); err != nil {
		return err
	}
	defer s.exitOp()
	if err := s.requireState("UploadKernel", StateProgramming); err != nil {
		return err
	}
	if err := kernel.Verify(); err != nil {
		return s.fail(&ProtocolError{Reason: fmt.Sprintf("kernel integrity check failed: %v", err)})
	}

	blocks := kernel.ExecBlocks(s.cfg.HighSpeedRead)
	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return s.fail(&CancelledError{Stage: "kernel upload", Err: err})
		}
		reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 6, Payload: block[3:]}, 6)
		if err != nil {
			return s.fail(&TransportError{Op: fmt.Sprintf("upload kernel block %d", i), Err: err})
		}
		if len(reply.Payload) < 1 || reply.Payload[0] != 0xAA {
			return s.fail(&ProtocolError{Reason: fmt.Sprintf("kernel block %d rejected", i)})
		}
	}

	s.setState(StateKernelResident)
	return nil
}

// EraseSector erases the sector at index (0-7) via the kernel's
// erase-sector routine. A timeout triggers one full retry of the erase
// exchange; a timeout on the retry is fatal to the session, since the
// chip's state after an erase that never acknowledged is unknown. A
// non-timeout failure (the kernel explicitly reports the erase failed)
// is fatal only to this call: the session remains in StateKernelResident.
func (s *Session) EraseSector(ctx context.Context, index int) error {
	if err := s.enterOp(); err != nil {
		return err
	}
	defer s.exitOp()
	if err := s.requireState("EraseSector", StateKernelResident); err != nil {
		return err
	}

	sectors := bankmap.Sectors()
	if index < 0 || index >= len(sectors) {
		return &ValidationError{Reason: fmt.Sprintf("sector index %d out of range [0,%d)", index, len(sectors))}
	}
	sector := sectors[index]
	s.report("erasing", 0, int64(bankmap.SectorSize))

	block := kernel.EraseSectorBlock(sector.Bank, sector.SelectorByte())
	frame := aldl.Frame{Mode: 6, Payload: block[3:]}

	reply, err := s.exchange(ctx, frame, 6, s.cfg.EraseTimeout)
	if isTimeout(err) {
		s.cfg.Logger.Warn("erase timed out, retrying once", "sector", index)
		reply, err = s.exchange(ctx, frame, 6, s.cfg.EraseTimeout)
	}
	if err != nil {
		return s.fail(&TransportError{Op: fmt.Sprintf("erase sector %d", index), Err: err})
	}
	if len(reply.Payload) < 1 || reply.Payload[0] != 0xAA {
		return &FlashError{Kind: FlashEraseFailed, Detail: fmt.Sprintf("sector %d", index)}
	}

	s.report("erasing", int64(bankmap.SectorSize), int64(bankmap.SectorSize))
	return nil
}

// selectBank uploads the write-bank kernel routine if bank differs from
// the currently selected one. A no-op once the right bank is already
// selected, so repeated ProgramBytes calls within the same sector don't
// re-upload it for every chunk.
func (s *Session) selectBank(ctx context.Context, bank byte) error {
	if s.bank == bank {
		return nil
	}
	block := kernel.WriteBankBlock(bank)
	reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 6, Payload: block[3:]}, 6)
	if err != nil {
		return s.fail(&TransportError{Op: "select bank", Err: err})
	}
	if len(reply.Payload) < 1 || reply.Payload[0] != 0xAA {
		return s.fail(&ProtocolError{Reason: "bank select rejected"})
	}
	s.bank = bank
	return nil
}

// ProgramBytes writes data at fileOffset through the currently resident
// kernel, then reads each byte back and reprograms any mismatch up to
// ProgramRetries times. data must fit within ChunkSize and within a
// single sector; callers that need to write a whole image split it into
// per-sector, per-chunk calls (the image package's job, not this one's).
func (s *Session) ProgramBytes(ctx context.Context, fileOffset uint32, data []byte) error {
	if err := s.enterOp(); err != nil {
		return err
	}
	defer s.exitOp()
	if err := s.requireState("ProgramBytes", StateKernelResident); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if len(data) > s.cfg.ChunkSize {
		return &ValidationError{Reason: fmt.Sprintf("chunk of %d bytes exceeds configured ChunkSize %d", len(data), s.cfg.ChunkSize)}
	}

	startSector, err := bankmap.SectorOf(fileOffset)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	endSector, err := bankmap.SectorOf(fileOffset + uint32(len(data)) - 1)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	if startSector.Index != endSector.Index {
		return &ValidationError{Reason: "chunk straddles a sector boundary"}
	}

	bank, cpu, err := bankmap.ToCPU(fileOffset)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	if err := s.selectBank(ctx, bank); err != nil {
		return err
	}

	payload := make([]byte, 0, 2+len(data))
	payload = append(payload, byte(cpu>>8), byte(cpu))
	payload = append(payload, data...)
	reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 16, Payload: payload}, 16)
	if err != nil {
		return s.fail(&TransportError{Op: "program bytes", Err: err})
	}
	if len(reply.Payload) < 1 || reply.Payload[0] != 0xAA {
		return &FlashError{Kind: FlashProgramMismatch, Detail: "write rejected"}
	}

	s.report("programming", 0, int64(len(data)))
	for i, want := range data {
		if err := ctx.Err(); err != nil {
			return &CancelledError{Stage: "program verify", Err: err}
		}
		if err := s.verifyAndReprogramByte(ctx, fileOffset+uint32(i), cpu+uint16(i), want); err != nil {
			return err
		}
		s.report("programming", int64(i+1), int64(len(data)))
	}
	return nil
}

func (s *Session) verifyAndReprogramByte(ctx context.Context, fileOffset uint32, cpu uint16, want byte) error {
	for attempt := 0; ; attempt++ {
		got, err := s.readByte(ctx, fileOffset)
		if err != nil {
			return err
		}
		if got == want {
			return nil
		}
		if attempt >= s.cfg.ProgramRetries {
			return &FlashError{
				Kind:   FlashProgramMismatch,
				Detail: fmt.Sprintf("offset 0x%05X: wrote 0x%02X, read back 0x%02X after %d retries", fileOffset, want, got, attempt),
			}
		}
		s.cfg.Logger.Warn("byte mismatch, reprogramming", "offset", fmt.Sprintf("0x%05X", fileOffset), "want", want, "got", got, "attempt", attempt)

		payload := []byte{byte(cpu >> 8), byte(cpu), want}
		reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 16, Payload: payload}, 16)
		if err != nil {
			return s.fail(&TransportError{Op: "reprogram byte", Err: err})
		}
		if len(reply.Payload) < 1 || reply.Payload[0] != 0xAA {
			return &FlashError{Kind: FlashProgramMismatch, Detail: fmt.Sprintf("offset 0x%05X: reprogram rejected", fileOffset)}
		}
	}
}

func (s *Session) readByte(ctx context.Context, fileOffset uint32) (byte, error) {
	b, err := s.readBytesLocked(ctx, fileOffset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes reads n bytes (1-64) starting at fileOffset directly from the
// ECU's flash image via the kernel's mode 9 peek, independent of bank
// selection.
func (s *Session) ReadBytes(ctx context.Context, fileOffset uint32, n int) ([]byte, error) {
	if err := s.enterOp(); err != nil {
		return nil, err
	}
	defer s.exitOp()
	if err := s.requireState("ReadBytes", StateKernelResident); err != nil {
		return nil, err
	}
	return s.readBytesLocked(ctx, fileOffset, n)
}

// readBytesLocked is ReadBytes's body, callable from within an operation
// that already holds enterOp (ProgramBytes's verify step).
func (s *Session) readBytesLocked(ctx context.Context, fileOffset uint32, n int) ([]byte, error) {
	if n <= 0 || n > 64 {
		return nil, &ValidationError{Reason: fmt.Sprintf("read length %d out of range [1,64]", n)}
	}
	payload := []byte{
		byte(fileOffset >> 16), byte(fileOffset >> 8), byte(fileOffset),
		byte(n),
	}
	reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 9, Payload: payload}, 9)
	if err != nil {
		return nil, s.fail(&TransportError{Op: "read bytes", Err: err})
	}
	if len(reply.Payload) != n {
		return nil, &ProtocolError{Reason: fmt.Sprintf("read of %d bytes at 0x%05X returned %d", n, fileOffset, len(reply.Payload))}
	}
	return reply.Payload, nil
}

// ComputeChecksum runs the kernel's on-chip checksum routine over the
// calibration window and returns the 16-bit sum it reports. A non-zero
// sum means the image's checksum field doesn't yet make the calibration
// net to zero; FlashError{Kind: FlashChecksumMismatch} is returned
// alongside the sum so the caller can decide whether to patch and retry.
func (s *Session) ComputeChecksum(ctx context.Context) (uint16, error) {
	if err := s.enterOp(); err != nil {
		return 0, err
	}
	defer s.exitOp()
	if err := s.requireState("ComputeChecksum", StateKernelResident); err != nil {
		return 0, err
	}

	block := kernel.ChecksumBin
	reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 6, Payload: block[3:]}, 6)
	if err != nil {
		return 0, s.fail(&TransportError{Op: "compute checksum", Err: err})
	}
	if len(reply.Payload) < 3 {
		return 0, &ProtocolError{Reason: "checksum reply too short"}
	}
	sum := uint16(reply.Payload[1])<<8 | uint16(reply.Payload[2])
	if reply.Payload[0] != 0xAA {
		return sum, &FlashError{Kind: FlashChecksumMismatch, Detail: fmt.Sprintf("sum 0x%04X", sum)}
	}
	return sum, nil
}

// FlashInfo uploads the kernel's flash-info routine and returns the
// manufacturer and device id bytes the chip reports, e.g. (0x01, 0x20) for
// an AMD Am29F010.
func (s *Session) FlashInfo(ctx context.Context) (manufacturer, device byte, err error) {
	if err := s.enterOp(); err != nil {
		return 0, 0, err
	}
	defer s.exitOp()
	if err := s.requireState("FlashInfo", StateKernelResident); err != nil {
		return 0, 0, err
	}

	block := kernel.FlashInfo
	reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 6, Payload: block[3:]}, 6)
	if err != nil {
		return 0, 0, s.fail(&TransportError{Op: "flash info", Err: err})
	}
	if len(reply.Payload) < 2 {
		return 0, 0, &ProtocolError{Reason: "flash info reply too short"}
	}
	return reply.Payload[0], reply.Payload[1], nil
}

// RequestDatalog sends a single mode 1 datastream request and returns the
// raw sensor snapshot payload. Only legal in StateIdle: the ECU's
// unsolicited broadcast already answers this traffic once silenced, and
// the kernel-mediated flash operations never run concurrently with it.
func (s *Session) RequestDatalog(ctx context.Context) ([]byte, error) {
	if err := s.enterOp(); err != nil {
		return nil, err
	}
	defer s.exitOp()
	if err := s.requireState("RequestDatalog", StateIdle); err != nil {
		return nil, err
	}

	reply, err := s.fr.Exchange(ctx, aldl.Frame{Mode: 1}, 1)
	if err != nil {
		return nil, &TransportError{Op: "request datalog", Err: err}
	}
	return reply.Payload, nil
}

// Cleanup runs the kernel's cleanup routine and returns the session to
// StateIdle. It is idempotent and best-effort: a no-op from StateIdle, and
// its own transport failure still forces the state back to Idle, since a
// caller running Cleanup has already decided the session is done.
func (s *Session) Cleanup(ctx context.Context) error {
	if err := s.enterOp(); err != nil {
		return err
	}
	defer s.exitOp()
	if s.State() == StateIdle {
		return nil
	}

	if s.State() == StateKernelResident {
		block := kernel.Cleanup
		_, _ = s.fr.Exchange(ctx, aldl.Frame{Mode: 6, Payload: block[3:]}, 6)
	}
	s.bank = bankmap.Bank48
	s.setState(StateIdle)
	return nil
}
