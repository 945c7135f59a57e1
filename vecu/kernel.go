package vecu

import (
	"github.com/kingai-forge/aldlflash/aldl"
	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/kernel"
	"github.com/kingai-forge/aldlflash/nor"
)

// Every kernel routine is uploaded through the same mode 6 mechanism; the
// payload length (the body after the mode byte, excluding device id/length/checksum)
// uniquely identifies which routine was sent, since the routines are fixed
// machine-code blocks of known, distinct sizes.
var (
	execBlock0Len  = len(kernel.ExecBlock0) - 3
	execBlock1Len  = len(kernel.ExecBlock1) - 3
	execBlock2Len  = len(kernel.ExecBlock2) - 3
	flashInfoLen   = len(kernel.FlashInfo) - 3
	eraseSectorLen = len(kernel.EraseSector) - 3
	writeBankLen   = len(kernel.WriteBank) - 3
	checksumBinLen = len(kernel.ChecksumBin) - 3
	cleanupLen     = len(kernel.Cleanup) - 3
)

// Patch byte offsets within a decoded mode 6 payload. aldl.Decode's Payload
// excludes device id, length byte, mode, and checksum, so a patch at raw
// block offset N lands at payload offset N-3.
const (
	eraseSectorBankPayloadOffset   = 105 - 3
	eraseSectorSelectPayloadOffset = 106 - 3
	writeBankPayloadOffset         = 157 - 3
)

// handleKernelUpload identifies which kernel routine a mode 6 frame carries
// and applies its effect directly to the backing chip, standing in for the
// HC11 actually executing the uploaded code.
func (e *ECU) handleKernelUpload(req aldl.Frame) (aldl.Frame, bool) {
	switch len(req.Payload) {
	case execBlock0Len, execBlock1Len, execBlock2Len:
		e.kernelBlock++
		return ack(req.Mode, 0xAA), true

	case flashInfoLen:
		// AMD 29F010: manufacturer 0x01, device 0x20.
		return ack(req.Mode, 0x01, 0x20), true

	case eraseSectorLen:
		if len(req.Payload) <= eraseSectorSelectPayloadOffset {
			return ack(req.Mode, 0xFF), true
		}
		bank := req.Payload[eraseSectorBankPayloadOffset]
		selector := req.Payload[eraseSectorSelectPayloadOffset]
		if !e.eraseSectorBySelector(bank, selector) {
			return ack(req.Mode, 0xFF), true
		}
		return ack(req.Mode, 0xAA), true

	case writeBankLen:
		if len(req.Payload) <= writeBankPayloadOffset {
			return ack(req.Mode, 0xFF), true
		}
		e.bank = req.Payload[writeBankPayloadOffset]
		return ack(req.Mode, 0xAA), true

	case checksumBinLen:
		return e.computeChecksumBin(req.Mode), true

	case cleanupLen:
		e.reset()
		return ack(req.Mode, 0xAA), true

	default:
		return aldl.Frame{}, false
	}
}

// eraseSectorBySelector finds the sector addressed by (bank, selector) —
// selector being the high byte of the sector's base CPU address, exactly
// what the kernel's erase routine receives as its operand — and drives
// nor.Chip through the real AMD unlock/erase command sequence at that
// sector's base address.
func (e *ECU) eraseSectorBySelector(bank, selector byte) bool {
	for _, s := range bankmap.Sectors() {
		if s.Bank == bank && s.SelectorByte() == selector {
			executeEraseSector(e.chip, s.FileStart)
			return true
		}
	}
	return false
}

// computeChecksumBin mirrors the kernel's on-chip checksum primitive: sum
// the calibration window's bytes outside the checksum field, add the field
// read as a big-endian word, and report whether the total nets to zero mod
// 2^16, returning the computed sum either way.
func (e *ECU) computeChecksumBin(mode byte) aldl.Frame {
	const calStart, calEnd = 0x4000, 0x8000
	const checksumHi, checksumLo = 0x4006, 0x4007
	var sum uint16
	for addr := calStart; addr < calEnd; addr++ {
		if addr == checksumHi || addr == checksumLo {
			continue
		}
		sum += uint16(e.chip.Read(uint32(addr)))
	}
	sum += uint16(e.chip.Read(checksumHi))<<8 | uint16(e.chip.Read(checksumLo))
	hi, lo := byte(sum>>8), byte(sum)
	if sum == 0 {
		return ack(mode, 0xAA, hi, lo)
	}
	return ack(mode, 0xFF, hi, lo)
}

func (e *ECU) reset() {
	e.programming = false
	e.kernelBlock = 0
	e.unlocked = false
	e.silenced = false
}

// programByte drives a single byte through the Am29F010's unlock/program
// command sequence, the same four writes the write-bank kernel routine
// issues on real silicon, then polls until the chip reports done before
// returning — exactly what lets the next byte's unlock sequence land
// instead of being ignored while the chip is still busy.
func programByte(chip *nor.Chip, addr uint32, data byte) {
	chip.Write(0x5555, 0xAA)
	chip.Write(0x2AAA, 0x55)
	chip.Write(0x5555, 0xA0)
	chip.Write(addr, data)
	chip.WaitReady(addr)
}

// executeEraseSector drives the six-write unlock/erase command sequence
// against the sector containing addr and waits for it to complete.
func executeEraseSector(chip *nor.Chip, addr uint32) {
	chip.Write(0x5555, 0xAA)
	chip.Write(0x2AAA, 0x55)
	chip.Write(0x5555, 0x80)
	chip.Write(0x5555, 0xAA)
	chip.Write(0x2AAA, 0x55)
	chip.Write(addr, 0x30)
	chip.WaitReady(addr)
}
