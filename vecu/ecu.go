package vecu

import (
	"context"

	"github.com/kingai-forge/aldlflash/aldl"
	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/nor"
	"github.com/kingai-forge/aldlflash/transport"
)

// SeedKeyMagic is the constant the ECU's key-check adds to the seed it
// issued. A key that doesn't reproduce the seed via this transform is
// rejected.
const SeedKeyMagic = 0x9349

// DefaultSeed is the seed this ECU returns on every mode 13 seed request.
// A fixed seed keeps tests deterministic; a real PCM's seed generator is
// not specified closely enough to reproduce here.
const DefaultSeed = 0x1234

// DatastreamPayloadLen is the wire size of the sensor snapshot returned for
// modes 1-4.
const DatastreamPayloadLen = 60

// ECU is a virtual 68HC11F1 PCM. The zero value is not usable; use NewECU.
// ECU embeds a *transport.Loopback for the half-duplex buffering and echo
// behavior every real link exhibits, and overrides Write to additionally
// compute and queue the ECU's reply after the self-echo.
type ECU struct {
	*transport.Loopback

	chip *nor.Chip

	silenced    bool
	unlocked    bool
	programming bool
	kernelBlock int // count of mode 6 exec blocks accepted so far

	bank byte
	ram  map[uint16]byte

	seed uint16
}

// NewECU returns a virtual ECU with a freshly erased chip.
func NewECU() *ECU {
	return NewECUWithChip(nor.NewChip())
}

// NewECUWithChip returns a virtual ECU backed by the given chip, for tests
// that want to pre-seed flash contents before exercising a session against
// it.
func NewECUWithChip(chip *nor.Chip) *ECU {
	return &ECU{
		Loopback: transport.NewLoopback(),
		chip:     chip,
		bank:     bankmap.Bank48,
		ram:      make(map[uint16]byte),
		seed:     DefaultSeed,
	}
}

// Chip exposes the backing flash model, for tests asserting on its final
// contents after a session has run.
func (e *ECU) Chip() *nor.Chip { return e.chip }

// Write performs the self-echo (via the embedded Loopback) and then, if the
// written bytes form a complete, valid ALDL frame, computes the ECU's reply
// and queues it behind the echo — exactly the order a real half-duplex link
// delivers bytes in.
func (e *ECU) Write(ctx context.Context, data []byte) error {
	if err := e.Loopback.Write(ctx, data); err != nil {
		return err
	}

	req, err := aldl.Decode(data)
	if err != nil {
		return nil // malformed frame: a real PCM simply never replies
	}

	if reply, ok := e.dispatch(req); ok {
		e.Loopback.Reply(aldl.Encode(reply))
	}
	return nil
}

// dispatch routes a decoded request to the handler for its mode and reports
// whether a reply should be sent at all (a PCM silently drops frames it
// doesn't recognize or isn't ready to answer).
func (e *ECU) dispatch(req aldl.Frame) (aldl.Frame, bool) {
	switch req.Mode {
	case 1, 2, 3, 4:
		return e.handleDatastream(req), true
	case 5:
		return e.handleEnterProgramming(req), true
	case 6:
		return e.handleKernelUpload(req)
	case 8:
		return e.handleSilence(req), true
	case 9:
		return e.handleRAMRead(req), true
	case 10:
		return e.handleRAMWrite(req), true
	case 13:
		return e.handleSecurity(req)
	case 16:
		return e.handleFlashWrite(req), true
	default:
		return aldl.Frame{}, false
	}
}

func ack(mode byte, extra ...byte) aldl.Frame {
	return aldl.Frame{Mode: mode, Payload: extra}
}

func (e *ECU) handleSilence(req aldl.Frame) aldl.Frame {
	e.silenced = true
	return ack(req.Mode)
}

func (e *ECU) handleEnterProgramming(req aldl.Frame) aldl.Frame {
	if !e.unlocked {
		return ack(req.Mode, 0xFF)
	}
	e.programming = true
	return ack(req.Mode, 0xAA)
}

// handleRAMRead answers a peek into the flash image: a 3-byte big-endian
// file offset followed by the number of bytes to return (defaulting to 64
// when omitted), reusing nor.Chip as the backing store so reads reflect any
// programming already applied.
func (e *ECU) handleRAMRead(req aldl.Frame) aldl.Frame {
	if len(req.Payload) < 3 {
		return ack(req.Mode, 0xFF)
	}
	addr := uint32(req.Payload[0])<<16 | uint32(req.Payload[1])<<8 | uint32(req.Payload[2])
	count := 64
	if len(req.Payload) > 3 {
		count = int(req.Payload[3])
	}
	out := make([]byte, count)
	for i := range out {
		out[i] = e.chip.Read(addr + uint32(i))
	}
	return ack(req.Mode, out...)
}

// handleRAMWrite applies a live-tune write directly into the RAM shadow map,
// bypassing the flash AND-only rule entirely: RAM is freely overwritable.
func (e *ECU) handleRAMWrite(req aldl.Frame) aldl.Frame {
	if len(req.Payload) < 3 {
		return ack(req.Mode, 0xFF)
	}
	addr := uint16(req.Payload[0])<<8 | uint16(req.Payload[1])
	for i, b := range req.Payload[2:] {
		e.ram[addr+uint16(i)] = b
	}
	return ack(req.Mode, 0xAA)
}

// handleFlashWrite programs the given payload at a CPU address within the
// currently selected bank, translating to a physical flash offset via
// bankmap and driving nor.Chip through a full unlock/program sequence per
// byte — the same sequence the uploaded kernel's write-bank routine would
// perform on real silicon.
func (e *ECU) handleFlashWrite(req aldl.Frame) aldl.Frame {
	if len(req.Payload) < 3 {
		return ack(req.Mode, 0xFF)
	}
	cpu := uint16(req.Payload[0])<<8 | uint16(req.Payload[1])
	data := req.Payload[2:]

	offset, err := bankmap.ToFile(e.bank, cpu)
	if err != nil {
		return ack(req.Mode, 0xFF)
	}
	for i, b := range data {
		programByte(e.chip, offset+uint32(i), b)
	}
	return ack(req.Mode, 0xAA)
}

// handleSecurity implements the two-step mode 13 seed/key exchange. The ECU
// never replies to a malformed security frame.
func (e *ECU) handleSecurity(req aldl.Frame) (aldl.Frame, bool) {
	if len(req.Payload) < 1 {
		return aldl.Frame{}, false
	}
	switch req.Payload[0] {
	case 0x01:
		hi := byte(e.seed >> 8)
		lo := byte(e.seed)
		return ack(req.Mode, 0x01, hi, lo), true
	case 0x02:
		if len(req.Payload) < 3 {
			return aldl.Frame{}, false
		}
		key := uint16(req.Payload[1])<<8 | uint16(req.Payload[2])
		if key == e.seed+SeedKeyMagic {
			e.unlocked = true
			return ack(req.Mode, 0x02, 0xAA), true
		}
		return ack(req.Mode, 0x02, 0xFF), true
	default:
		return aldl.Frame{}, false
	}
}

func (e *ECU) handleDatastream(req aldl.Frame) aldl.Frame {
	data := make([]byte, DatastreamPayloadLen)
	data[0] = 0x00 // RPM hi
	data[1] = 0x20 // RPM lo (800 RPM at 25 RPM/count)
	data[5] = 140  // coolant temp raw
	data[29] = 140 // battery voltage raw (14.0V)
	data[13] = 25  // TPS raw
	data[14] = 128 // O2 sensor raw (stoich)
	data[21] = 128 // short term fuel trim
	data[23] = 128 // long term fuel trim
	return ack(req.Mode, data...)
}
