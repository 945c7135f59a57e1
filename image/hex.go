package image

import (
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"
)

// ExportHex writes the image as Intel HEX, one record set covering the
// full address range, 32 data bytes per line.
func (img *Image) ExportHex(w io.Writer) error {
	mem := gohex.NewMemory()
	mem.AddBinary(0, img.Data[:])
	if err := mem.DumpIntelHex(w, 32); err != nil {
		return fmt.Errorf("image: export hex: %w", err)
	}
	return nil
}

// ExportHexFile writes the image as Intel HEX to path.
func (img *Image) ExportHexFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("image: export hex: %w", err)
	}
	defer f.Close()
	return img.ExportHex(f)
}

// ImportHex loads an Intel HEX file's data segments into a new Image,
// leaving bytes the file doesn't cover at 0xFF.
func ImportHex(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("image: import hex: %w", err)
	}
	defer f.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("image: import hex: %w", err)
	}

	img := New()
	for _, seg := range mem.GetDataSegments() {
		end := int(seg.Address) + len(seg.Data)
		if end > len(img.Data) {
			end = len(img.Data)
		}
		if int(seg.Address) >= end {
			continue
		}
		copy(img.Data[seg.Address:end], seg.Data)
	}
	return img, nil
}
