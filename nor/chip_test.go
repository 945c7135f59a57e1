package nor

import (
	"testing"
	"time"
)

func unlock(c *Chip) {
	c.Write(0x5555, 0xAA)
	c.Write(0x2AAA, 0x55)
}

func program(c *Chip, addr uint32, data byte) {
	unlock(c)
	c.Write(0x5555, 0xA0)
	c.Write(addr, data)
}

func eraseSector(c *Chip, sectorAddr uint32) {
	unlock(c)
	c.Write(0x5555, 0x80)
	unlock(c)
	c.Write(sectorAddr, 0x30)
}

func waitIdle(c *Chip, addr uint32) {
	for i := 0; i < 10000; i++ {
		c.Read(addr)
		if c.state == StateRead {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewChipErased(t *testing.T) {
	c := NewChip()
	if got := c.Read(0); got != 0xFF {
		t.Errorf("Read(0) on fresh chip = 0x%02X, want 0xFF", got)
	}
}

func TestProgramAppliesAndRule(t *testing.T) {
	c := NewChip()
	c.ProgramDuration = time.Millisecond

	program(c, 0x1000, 0x0F)
	waitIdle(c, 0x1000)
	if got := c.Read(0x1000); got != 0x0F {
		t.Fatalf("after first program, Read = 0x%02X, want 0x0F", got)
	}

	// Programming 0xF0 into a cell already holding 0x0F must AND, never
	// set bits back to 1: the result stays 0x00, not 0xFF or 0xF0.
	program(c, 0x1000, 0xF0)
	waitIdle(c, 0x1000)
	if got := c.Read(0x1000); got != 0x00 {
		t.Errorf("after second program, Read = 0x%02X, want 0x00 (AND rule)", got)
	}
}

func TestEraseSectorFillsWithFF(t *testing.T) {
	c := NewChip()
	c.ProgramDuration = time.Millisecond
	c.EraseDuration = time.Millisecond

	program(c, 0x0010, 0x00)
	waitIdle(c, 0x0010)
	if got := c.Read(0x0010); got != 0x00 {
		t.Fatalf("setup: Read = 0x%02X, want 0x00", got)
	}

	eraseSector(c, 0x0010)
	waitIdle(c, 0x0010)
	if got := c.Read(0x0010); got != 0xFF {
		t.Errorf("after erase, Read = 0x%02X, want 0xFF", got)
	}
	// Only the erased sector should be touched.
	if got := c.Read(SectorSize + 1); got != 0xFF {
		t.Errorf("neighbor sector disturbed: Read = 0x%02X", got)
	}
}

func TestWriteOutsideSequenceReturnsToRead(t *testing.T) {
	c := NewChip()
	c.Write(0x5555, 0xAA)
	if c.state != StateUnlock1 {
		t.Fatalf("state = %v, want StateUnlock1", c.state)
	}
	c.Write(0x1234, 0x99) // not the expected second unlock tuple
	if c.state != StateRead {
		t.Errorf("state = %v, want StateRead after unexpected write", c.state)
	}
}

func TestDQ6TogglesWhileBusy(t *testing.T) {
	c := NewChip()
	c.ProgramDuration = 20 * time.Millisecond

	program(c, 0x2000, 0x00)
	first := c.Read(0x2000) & 0x40
	second := c.Read(0x2000) & 0x40
	if first == second {
		t.Error("DQ6 did not toggle across consecutive reads while busy")
	}
}

func TestWaitReadyReturnsFinalByte(t *testing.T) {
	c := NewChip()
	c.ProgramDuration = 5 * time.Millisecond

	program(c, 0x4000, 0x77)
	if got := c.WaitReady(0x4000); got != 0x77 {
		t.Errorf("WaitReady = 0x%02X, want 0x77", got)
	}
	if c.state != StateRead {
		t.Errorf("state after WaitReady = %v, want StateRead", c.state)
	}
}

func TestFaultStuckSetsDQ5(t *testing.T) {
	c := NewChip()
	c.ProgramDuration = time.Millisecond
	c.SetFault(FaultStuck)

	program(c, 0x3000, 0x00)
	if got := c.Read(0x3000) & 0x20; got == 0 {
		t.Error("DQ5 (timeout) not set while fault is stuck")
	}
}
