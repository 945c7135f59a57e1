package image

import (
	"fmt"
	"os"

	"github.com/kingai-forge/aldlflash/bankmap"
)

// Calibration window and checksum field layout, per the sector map this
// mirrors the on-chip checksum kernel routine against (vecu's
// computeChecksumBin): the checksum field lives inside the window it
// covers, and a valid image makes the window's other bytes plus the field,
// read as a big-endian word, sum to zero mod 65536.
const (
	calStart   = 0x4000
	calEnd     = 0x8000
	checksumHi = 0x4006
	checksumLo = 0x4007
)

// Image is a complete 128 KiB flash image held in memory.
type Image struct {
	Data [bankmap.ImageSize]byte
}

// New returns an Image filled with 0xFF, the erased state of the flash
// array.
func New() *Image {
	img := &Image{}
	for i := range img.Data {
		img.Data[i] = 0xFF
	}
	return img
}

// Load reads a raw .bin file into an Image. A bare 16 KiB calibration-only
// file is accepted and padded into the calibration window of an otherwise
// erased image, matching the reference tool's allowance for cal-only
// dumps.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("image: load %s: %w", path, err)
	}

	switch len(data) {
	case bankmap.ImageSize:
		img := &Image{}
		copy(img.Data[:], data)
		return img, nil
	case calEnd - calStart:
		img := New()
		copy(img.Data[calStart:calEnd], data)
		return img, nil
	default:
		return nil, fmt.Errorf("image: load %s: %d bytes, want %d (full) or %d (calibration only)",
			path, len(data), bankmap.ImageSize, calEnd-calStart)
	}
}

// Save writes the image to path as a raw .bin file.
func (img *Image) Save(path string) error {
	if err := os.WriteFile(path, img.Data[:], 0o644); err != nil {
		return fmt.Errorf("image: save %s: %w", path, err)
	}
	return nil
}

// OSID returns the two-byte operating system identifier stored at the
// start of the calibration window.
func (img *Image) OSID() [2]byte {
	return [2]byte{img.Data[calStart], img.Data[calStart+1]}
}

// ComputeChecksum sums the calibration window the same way the kernel's
// on-chip routine does: every byte outside the checksum field, plus the
// field itself read as a big-endian 16-bit word, modulo 65536. A valid
// image reports zero.
func (img *Image) ComputeChecksum() uint16 {
	var sum uint16
	for addr := calStart; addr < calEnd; addr++ {
		if addr == checksumHi || addr == checksumLo {
			continue
		}
		sum += uint16(img.Data[addr])
	}
	return sum + (uint16(img.Data[checksumHi])<<8 | uint16(img.Data[checksumLo]))
}

// VerifyChecksum reports whether the image's stored checksum already
// makes the calibration window net to zero.
func (img *Image) VerifyChecksum() bool {
	return img.ComputeChecksum() == 0
}

// FixChecksum recomputes the checksum field so the calibration window
// sums to zero, and returns the previously stored value and the value it
// was replaced with.
func (img *Image) FixChecksum() (old, fixed uint16) {
	old = uint16(img.Data[checksumHi])<<8 | uint16(img.Data[checksumLo])

	var partial uint16
	for addr := calStart; addr < calEnd; addr++ {
		if addr == checksumHi || addr == checksumLo {
			continue
		}
		partial += uint16(img.Data[addr])
	}
	fixed = -partial // two's-complement fix-up: partial + fixed == 0 mod 65536

	img.Data[checksumHi] = byte(fixed >> 8)
	img.Data[checksumLo] = byte(fixed)
	return old, fixed
}
