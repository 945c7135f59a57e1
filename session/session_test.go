package session

import (
	"context"
	"errors"
	"testing"

	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/vecu"
)

func openTestSession(t *testing.T) (*Session, *vecu.ECU) {
	t.Helper()
	e := vecu.NewECU()
	s, err := Open(context.Background(), e)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, e
}

func bringUp(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	if err := s.Silence(ctx); err != nil {
		t.Fatalf("Silence: %v", err)
	}
	if err := s.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := s.EnterProgramming(ctx); err != nil {
		t.Fatalf("EnterProgramming: %v", err)
	}
	if err := s.UploadKernel(ctx); err != nil {
		t.Fatalf("UploadKernel: %v", err)
	}
	if s.State() != StateKernelResident {
		t.Fatalf("state after bring-up = %s, want KernelResident", s.State())
	}
}

func TestBringUpSequenceReachesKernelResident(t *testing.T) {
	s, _ := openTestSession(t)
	bringUp(t, s)
}

func TestOperationOutOfOrderReturnsStateError(t *testing.T) {
	s, _ := openTestSession(t)
	err := s.EnterProgramming(context.Background())
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StateError", err)
	}
	if se.Want != StateAuthenticated || se.Have != StateIdle {
		t.Errorf("StateError = %+v, want Want=Authenticated Have=Idle", se)
	}
}

func TestEraseProgramReadRoundTrip(t *testing.T) {
	s, e := openTestSession(t)
	bringUp(t, s)
	ctx := context.Background()

	sector, err := bankmap.SectorOf(0x10000)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EraseSector(ctx, sector.Index); err != nil {
		t.Fatalf("EraseSector: %v", err)
	}
	if got := e.Chip().Read(sector.FileStart); got != 0xFF {
		t.Fatalf("sector not erased: 0x%02X", got)
	}

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := s.ProgramBytes(ctx, sector.FileStart, data); err != nil {
		t.Fatalf("ProgramBytes: %v", err)
	}

	got, err := s.ReadBytes(ctx, sector.FileStart, len(data))
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	for i, want := range data {
		if got[i] != want {
			t.Errorf("byte %d = 0x%02X, want 0x%02X", i, got[i], want)
		}
	}
}

func TestProgramBytesRejectsChunkCrossingSectorBoundary(t *testing.T) {
	s, _ := openTestSession(t)
	bringUp(t, s)

	offset := bankmap.SectorSize - 2 // last 2 bytes of sector 0
	data := []byte{0x01, 0x02, 0x03, 0x04}
	err := s.ProgramBytes(context.Background(), uint32(offset), data)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestProgramBytesRejectsOversizedChunk(t *testing.T) {
	s, _ := openTestSession(t)
	bringUp(t, s)

	data := make([]byte, defaultConfig().ChunkSize+1)
	err := s.ProgramBytes(context.Background(), 0, data)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestFlashInfoReportsAMD29F010(t *testing.T) {
	s, _ := openTestSession(t)
	bringUp(t, s)

	manufacturer, device, err := s.FlashInfo(context.Background())
	if err != nil {
		t.Fatalf("FlashInfo: %v", err)
	}
	if manufacturer != 0x01 || device != 0x20 {
		t.Errorf("FlashInfo = (0x%02X, 0x%02X), want (0x01, 0x20)", manufacturer, device)
	}
}

func TestComputeChecksumOnBlankImageReportsMismatch(t *testing.T) {
	s, _ := openTestSession(t)
	bringUp(t, s)

	_, err := s.ComputeChecksum(context.Background())
	var fe *FlashError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FlashError", err)
	}
	if fe.Kind != FlashChecksumMismatch {
		t.Errorf("Kind = %v, want FlashChecksumMismatch", fe.Kind)
	}
}

func TestCleanupReturnsToIdle(t *testing.T) {
	s, _ := openTestSession(t)
	bringUp(t, s)

	if err := s.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state after Cleanup = %s, want Idle", s.State())
	}

	// Idempotent from Idle.
	if err := s.Cleanup(context.Background()); err != nil {
		t.Errorf("Cleanup from Idle: %v", err)
	}
}

func TestBusyOperationRejectsConcurrentCall(t *testing.T) {
	s, _ := openTestSession(t)
	s.busy.Store(true)
	defer s.busy.Store(false)

	if err := s.Silence(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
}

func TestDeriveKeyMatchesWorkedExample(t *testing.T) {
	if got := DeriveKey(0x1234); got != 0xA57D {
		t.Errorf("DeriveKey(0x1234) = 0x%04X, want 0xA57D", got)
	}
}

func TestProgressSnapshotAdvancesDuringErase(t *testing.T) {
	s, _ := openTestSession(t)
	bringUp(t, s)

	_, seqBefore := s.Progress()
	if err := s.EraseSector(context.Background(), 0); err != nil {
		t.Fatalf("EraseSector: %v", err)
	}
	p, seqAfter := s.Progress()
	if seqAfter <= seqBefore {
		t.Error("sequence counter did not advance across EraseSector")
	}
	if p.Stage != "erasing" {
		t.Errorf("final stage = %q, want %q", p.Stage, "erasing")
	}
}
