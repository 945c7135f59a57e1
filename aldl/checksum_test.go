package aldl

import "testing"

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected byte
	}{
		{name: "empty", data: []byte{}, expected: 0x00},
		{name: "single byte", data: []byte{0x01}, expected: 0xFF},
		{name: "already zero sum", data: []byte{0x00, 0x00}, expected: 0x00},
		{name: "wraps past 256", data: []byte{0xFF, 0xFF}, expected: 0x02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Checksum(tt.data)
			if got != tt.expected {
				t.Errorf("Checksum(%v) = 0x%02X, want 0x%02X", tt.data, got, tt.expected)
			}
			full := append(append([]byte{}, tt.data...), got)
			if !verifyChecksum(full) {
				t.Errorf("verifyChecksum(%v) = false, want true", full)
			}
		})
	}
}

func TestChecksumMakesFrameSumZero(t *testing.T) {
	f := Frame{Mode: 0x0D, Payload: []byte{0x01}}
	wire := Encode(f)

	var sum int
	for _, b := range wire {
		sum += int(b)
	}
	if sum%256 != 0 {
		t.Errorf("frame byte sum = %d, want a multiple of 256", sum)
	}
}
