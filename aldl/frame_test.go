package aldl

import (
	"bytes"
	"testing"
)

func TestEncodeSeedRequest(t *testing.T) {
	// Mode 13 (security) seed request: device 0xF7, sub-command 0x01.
	// Grounded on the reference tool's build_seed_request/build_simple_frame.
	got := Encode(Frame{Mode: 0x0D, Payload: []byte{0x01}})
	want := []byte{0xF7, 0x57, 0x0D, 0x01, 0xA4}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = % X, want % X", got, want)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		mode    byte
		payload []byte
	}{
		{name: "no payload", mode: 0x05},
		{name: "one byte", mode: 0x08, payload: []byte{0x01}},
		{name: "key response", mode: 0x0D, payload: []byte{0x02, 0x12, 0x34}},
		{name: "write chunk", mode: 0x10, payload: make([]byte, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := Encode(Frame{Mode: tt.mode, Payload: tt.payload})
			got, err := Decode(wire)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Mode != tt.mode {
				t.Errorf("Mode = 0x%02X, want 0x%02X", got.Mode, tt.mode)
			}
			if !bytes.Equal(got.Payload, tt.payload) {
				t.Errorf("Payload = % X, want % X", got.Payload, tt.payload)
			}
		})
	}
}

func TestDecodeRejectsWrongDeviceID(t *testing.T) {
	wire := Encode(Frame{Mode: 0x08})
	wire[0] = 0xF4
	if _, err := Decode(wire); err == nil {
		t.Error("Decode() with wrong device id: want error, got nil")
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	wire := Encode(Frame{Mode: 0x08})
	wire[len(wire)-1] ^= 0xFF
	if _, err := Decode(wire); err == nil {
		t.Error("Decode() with corrupted checksum: want error, got nil")
	}
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	wire := Encode(Frame{Mode: 0x08, Payload: []byte{0x01, 0x02}})
	if _, err := Decode(wire[:len(wire)-1]); err == nil {
		t.Error("Decode() with truncated frame: want error, got nil")
	}
}

func TestWireLength(t *testing.T) {
	// Mode 8 silence frame: mode byte only, no payload.
	if got := WireLength(1); got != 4 {
		t.Errorf("WireLength(1) = %d, want 4", got)
	}
	// Mode 16 flash write, 3-byte address + 32 data bytes + mode byte.
	if got := WireLength(1 + 3 + 32); got != 39 {
		t.Errorf("WireLength(36) = %d, want 39", got)
	}
}
