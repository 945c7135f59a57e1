package bankmap

import "testing"

func TestToCPURoundTrip(t *testing.T) {
	tests := []struct {
		offset   uint32
		wantBank byte
		wantCPU  uint16
	}{
		{offset: 0x00000, wantBank: Bank48, wantCPU: 0x0000},
		{offset: 0x05000, wantBank: Bank48, wantCPU: 0x5000},
		{offset: 0x0FFFF, wantBank: Bank48, wantCPU: 0xFFFF},
		{offset: 0x10000, wantBank: Bank58, wantCPU: 0x8000},
		{offset: 0x17FFF, wantBank: Bank58, wantCPU: 0xFFFF},
		{offset: 0x18000, wantBank: Bank50, wantCPU: 0x8000},
		{offset: 0x1FFFF, wantBank: Bank50, wantCPU: 0xFFFF},
	}

	for _, tt := range tests {
		bank, cpu, err := ToCPU(tt.offset)
		if err != nil {
			t.Fatalf("ToCPU(0x%05X) error = %v", tt.offset, err)
		}
		if bank != tt.wantBank || cpu != tt.wantCPU {
			t.Errorf("ToCPU(0x%05X) = (0x%02X, 0x%04X), want (0x%02X, 0x%04X)",
				tt.offset, bank, cpu, tt.wantBank, tt.wantCPU)
		}

		back, err := ToFile(bank, cpu)
		if err != nil {
			t.Fatalf("ToFile(0x%02X, 0x%04X) error = %v", bank, cpu, err)
		}
		if back != tt.offset {
			t.Errorf("ToFile(ToCPU(0x%05X)) = 0x%05X, want 0x%05X", tt.offset, back, tt.offset)
		}
	}
}

func TestToCPUOutOfRange(t *testing.T) {
	if _, _, err := ToCPU(ImageSize); err == nil {
		t.Error("ToCPU(ImageSize) want error, got nil")
	}
}

func TestSectorsForModes(t *testing.T) {
	if got := len(SectorsFor(ModeCAL)); got != 1 {
		t.Errorf("len(SectorsFor(ModeCAL)) = %d, want 1", got)
	}
	if got := SectorsFor(ModeCAL)[0].Index; got != 1 {
		t.Errorf("SectorsFor(ModeCAL)[0].Index = %d, want 1", got)
	}

	bin := SectorsFor(ModeBIN)
	if len(bin) != 7 {
		t.Fatalf("len(SectorsFor(ModeBIN)) = %d, want 7", len(bin))
	}
	for _, s := range bin {
		if s.Index == 7 {
			t.Error("SectorsFor(ModeBIN) includes the boot sector")
		}
	}

	prom := SectorsFor(ModePROM)
	if len(prom) != 8 {
		t.Fatalf("len(SectorsFor(ModePROM)) = %d, want 8", len(prom))
	}
}

func TestSelectorByte(t *testing.T) {
	s, _ := SectorOf(0x14000) // sector 5, bank 0x58, CPU base 0xC000
	if got := s.SelectorByte(); got != 0xC0 {
		t.Errorf("SelectorByte() = 0x%02X, want 0xC0", got)
	}
}
