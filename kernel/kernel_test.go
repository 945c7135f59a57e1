package kernel

import "testing"

func TestVerify(t *testing.T) {
	if err := Verify(); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestExecBlocksSizes(t *testing.T) {
	blocks := ExecBlocks(false)
	wantSizes := []int{171, 172, 156}
	for i, b := range blocks {
		if len(b) != wantSizes[i] {
			t.Errorf("block %d size = %d, want %d", i, len(b), wantSizes[i])
		}
	}
}

func TestExecBlocksHighSpeedPatch(t *testing.T) {
	normal := ExecBlocks(false)
	fast := ExecBlocks(true)

	if normal[0][block0HighSpeedOffset] != normalByte0 {
		t.Errorf("block0[%d] = 0x%02X, want 0x%02X", block0HighSpeedOffset, normal[0][block0HighSpeedOffset], normalByte0)
	}
	if fast[0][block0HighSpeedOffset] != highSpeedByte0 {
		t.Errorf("block0[%d] = 0x%02X, want 0x%02X", block0HighSpeedOffset, fast[0][block0HighSpeedOffset], highSpeedByte0)
	}
	if fast[1][block1HighSpeedOffset] != highSpeedByte1 {
		t.Errorf("block1[%d] = 0x%02X, want 0x%02X", block1HighSpeedOffset, fast[1][block1HighSpeedOffset], highSpeedByte1)
	}
}

func TestExecBlocksDoesNotMutateSource(t *testing.T) {
	_ = ExecBlocks(true)
	if ExecBlock0[block0HighSpeedOffset] == highSpeedByte0 {
		t.Error("ExecBlocks(true) mutated the package-level ExecBlock0 slice")
	}
}

func TestEraseSectorBlockPatch(t *testing.T) {
	b := EraseSectorBlock(0x58, 0xC0)
	if b[eraseSectorBankOffset] != 0x58 {
		t.Errorf("bank byte = 0x%02X, want 0x58", b[eraseSectorBankOffset])
	}
	if b[eraseSectorSelectOffset] != 0xC0 {
		t.Errorf("selector byte = 0x%02X, want 0xC0", b[eraseSectorSelectOffset])
	}
	if len(EraseSector) != len(b) || EraseSector[eraseSectorBankOffset] == 0x58 {
		// guard against the patch helper mutating the shared source slice
		t.Error("EraseSectorBlock mutated the package-level EraseSector slice")
	}
}

func TestWriteBankBlockPatch(t *testing.T) {
	b := WriteBankBlock(0x50)
	if b[writeBankOffset] != 0x50 {
		t.Errorf("bank byte = 0x%02X, want 0x50", b[writeBankOffset])
	}
}
