package bankmap

import "fmt"

// Bank register values. Sectors 0-3 live behind Bank48, 4-5 behind
// Bank58, 6-7 behind Bank50.
const (
	Bank48 byte = 0x48
	Bank58 byte = 0x58
	Bank50 byte = 0x50
)

// ImageSize is the size in bytes of a complete flash image.
const ImageSize = 0x20000

// SectorSize is the erase granularity, matching nor.SectorSize.
const SectorSize = 0x4000

// Sector describes one 16 KiB erase unit: its index, the file offset
// range it occupies, which bank selects it, and its base CPU address
// within that bank.
type Sector struct {
	Index     int
	FileStart uint32
	FileEnd   uint32 // exclusive
	Bank      byte
	CPUBase   uint16
}

// SelectorByte is the byte the flash kernel's erase-sector routine
// expects as its sector operand: the high byte of the sector's base CPU
// address.
func (s Sector) SelectorByte() byte {
	return byte(s.CPUBase >> 8)
}

// sectors is the canonical, fixed layout of the 128 KiB image.
var sectors = [8]Sector{
	{Index: 0, FileStart: 0x00000, FileEnd: 0x04000, Bank: Bank48, CPUBase: 0x0000},
	{Index: 1, FileStart: 0x04000, FileEnd: 0x08000, Bank: Bank48, CPUBase: 0x4000},
	{Index: 2, FileStart: 0x08000, FileEnd: 0x0C000, Bank: Bank48, CPUBase: 0x8000},
	{Index: 3, FileStart: 0x0C000, FileEnd: 0x10000, Bank: Bank48, CPUBase: 0xC000},
	{Index: 4, FileStart: 0x10000, FileEnd: 0x14000, Bank: Bank58, CPUBase: 0x8000},
	{Index: 5, FileStart: 0x14000, FileEnd: 0x18000, Bank: Bank58, CPUBase: 0xC000},
	{Index: 6, FileStart: 0x18000, FileEnd: 0x1C000, Bank: Bank50, CPUBase: 0x8000},
	{Index: 7, FileStart: 0x1C000, FileEnd: 0x20000, Bank: Bank50, CPUBase: 0xC000},
}

// Sectors returns the fixed 8-sector layout of a 128 KiB image.
func Sectors() []Sector {
	out := make([]Sector, len(sectors))
	copy(out, sectors[:])
	return out
}

// SectorOf returns the sector containing file offset.
func SectorOf(offset uint32) (Sector, error) {
	for _, s := range sectors {
		if offset >= s.FileStart && offset < s.FileEnd {
			return s, nil
		}
	}
	return Sector{}, fmt.Errorf("bankmap: file offset 0x%05X out of range", offset)
}

// ToCPU translates a file offset into the (bank, CPU address) pair that
// addresses it.
func ToCPU(offset uint32) (bank byte, cpu uint16, err error) {
	s, err := SectorOf(offset)
	if err != nil {
		return 0, 0, err
	}
	return s.Bank, s.CPUBase + uint16(offset-s.FileStart), nil
}

// ToFile is the inverse of ToCPU: given a bank and CPU address, returns
// the file offset it corresponds to.
func ToFile(bank byte, cpu uint16) (offset uint32, err error) {
	for _, s := range sectors {
		if s.Bank != bank {
			continue
		}
		if cpu < s.CPUBase || uint32(cpu) >= uint32(s.CPUBase)+SectorSize {
			continue
		}
		return s.FileStart + uint32(cpu-s.CPUBase), nil
	}
	return 0, fmt.Errorf("bankmap: bank 0x%02X cpu 0x%04X not addressable", bank, cpu)
}
