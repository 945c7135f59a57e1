package image

import (
	"context"
	"fmt"

	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/session"
)

// WriteImage erases, programs, and verifies img into the ECU through s,
// covering the sectors and file range mode selects. s must already be in
// StateKernelResident (the caller's Silence/Authenticate/EnterProgramming/
// UploadKernel sequence). If resume is non-nil, sectors at or before
// resume.LastGoodSector are assumed already good and are skipped, so a
// write that failed partway through can continue where it left off.
//
// Mirrors the reference programmer's phase structure: erase, program with
// per-sector progress, verify, and a final on-chip checksum check,
// re-targeted from row/array addressing to sector/bank addressing.
func WriteImage(ctx context.Context, s *session.Session, mode bankmap.Mode, img *Image, resume *Report) (*Report, error) {
	report := &Report{Mode: mode, LastGoodSector: -1}
	if resume != nil {
		report.LastGoodSector = resume.LastGoodSector
	}

	if !img.VerifyChecksum() {
		report.Err = &session.ValidationError{Reason: fmt.Sprintf(
			"image checksum at 0x%04X/0x%04X does not zero the calibration window (sum 0x%04X)",
			checksumHi, checksumLo, img.ComputeChecksum())}
		return report, report.Err
	}

	sectors := bankmap.SectorsFor(mode)
	writeStart, writeEnd := bankmap.WriteRange(mode)
	chunkSize := s.ChunkSize()

	for _, sector := range sectors {
		if err := ctx.Err(); err != nil {
			report.Err = fmt.Errorf("cancelled before sector %d: %w", sector.Index, err)
			return report, report.Err
		}
		if sector.Index <= report.LastGoodSector {
			continue
		}

		if err := s.EraseSector(ctx, sector.Index); err != nil {
			report.Err = fmt.Errorf("erase sector %d: %w", sector.Index, err)
			return report, report.Err
		}

		start, end := sectorWriteRange(sector, writeStart, writeEnd)
		for offset := start; offset < end; offset += uint32(chunkSize) {
			if err := ctx.Err(); err != nil {
				report.LastGoodOffset = offset
				report.Err = fmt.Errorf("cancelled programming sector %d: %w", sector.Index, err)
				return report, report.Err
			}

			n := uint32(chunkSize)
			if offset+n > end {
				n = end - offset
			}
			chunk := img.Data[offset : offset+n]
			if err := s.ProgramBytes(ctx, offset, chunk); err != nil {
				report.LastGoodOffset = offset
				report.Err = fmt.Errorf("program sector %d at 0x%05X: %w", sector.Index, offset, err)
				return report, report.Err
			}
			report.LastGoodOffset = offset + n
		}

		got, err := readBackSector(ctx, s, start, end)
		if err != nil {
			report.Err = fmt.Errorf("verify sector %d: %w", sector.Index, err)
			return report, report.Err
		}
		if mismatch, ok := firstMismatch(img.Data[start:end], got); ok {
			report.Err = fmt.Errorf("verify sector %d: mismatch at offset 0x%05X", sector.Index, start+uint32(mismatch))
			return report, report.Err
		}

		report.LastGoodSector = sector.Index
	}

	sum, err := s.ComputeChecksum(ctx)
	report.Checksum = sum
	if err != nil {
		report.Err = fmt.Errorf("final checksum: %w", err)
		return report, report.Err
	}
	return report, nil
}

// sectorWriteRange clips [writeStart,writeEnd) to the portion overlapping
// sector, since a write's range need not cover a sector completely (CAL
// mode writes only the single calibration sector's data, for instance).
func sectorWriteRange(sector bankmap.Sector, writeStart, writeEnd uint32) (start, end uint32) {
	start, end = sector.FileStart, sector.FileEnd
	if writeStart > start {
		start = writeStart
	}
	if writeEnd < end {
		end = writeEnd
	}
	return start, end
}

// readBackSector reads back [start,end) through the kernel's mode 9 peek,
// in chunks no larger than the protocol's 64-byte read ceiling.
func readBackSector(ctx context.Context, s *session.Session, start, end uint32) ([]byte, error) {
	out := make([]byte, 0, end-start)
	for offset := start; offset < end; offset += 64 {
		n := 64
		if remaining := int(end - offset); remaining < n {
			n = remaining
		}
		chunk, err := s.ReadBytes(ctx, offset, n)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func firstMismatch(want, got []byte) (int, bool) {
	for i := range want {
		if want[i] != got[i] {
			return i, true
		}
	}
	return 0, false
}
