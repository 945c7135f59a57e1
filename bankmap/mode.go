package bankmap

// Mode selects which part of the image an operation targets. PROM is
// also how a caller opts into full-recovery mode: it is the only mode
// whose erase set includes sector 7, the boot sector.
type Mode int

const (
	ModeBIN Mode = iota // OS + calibration, sectors 0-6
	ModeCAL             // calibration only, sector 1
	ModePROM            // everything, sectors 0-7 (recovery)
)

func (m Mode) String() string {
	switch m {
	case ModeBIN:
		return "BIN"
	case ModeCAL:
		return "CAL"
	case ModePROM:
		return "PROM"
	default:
		return "unknown"
	}
}

// SectorsFor returns the sectors a write in mode m must erase, in
// ascending index order.
func SectorsFor(m Mode) []Sector {
	switch m {
	case ModeCAL:
		return []Sector{sectors[1]}
	case ModeBIN:
		return sectors[0:7]
	case ModePROM:
		return sectors[0:8]
	default:
		return nil
	}
}

// WriteRange returns the file offset range [start, end) a write in mode
// m programs.
func WriteRange(m Mode) (start, end uint32) {
	switch m {
	case ModeCAL:
		return 0x4000, 0x8000
	case ModeBIN:
		return 0x2000, 0x1C000
	case ModePROM:
		return 0x2000, 0x20000
	default:
		return 0, 0
	}
}
