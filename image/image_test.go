package image

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kingai-forge/aldlflash/bankmap"
)

func TestNewImageIsErased(t *testing.T) {
	img := New()
	for i, b := range img.Data {
		if b != 0xFF {
			t.Fatalf("byte %d = 0x%02X, want 0xFF", i, b)
		}
	}
}

func TestFixChecksumThenVerify(t *testing.T) {
	img := New()
	copy(img.Data[calStart:calEnd], []byte{0x01, 0x20, 0x02, 0x03, 0x04, 0x05})

	if img.VerifyChecksum() {
		t.Fatal("blank-ish image unexpectedly already valid")
	}
	old, newSum := img.FixChecksum()
	if old != 0xFFFF {
		t.Errorf("old checksum = 0x%04X, want 0xFFFF (0xFF region)", old)
	}
	_ = newSum
	if !img.VerifyChecksum() {
		t.Errorf("checksum = 0x%04X after fix, want a value that nets the window to zero", img.ComputeChecksum())
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	img := New()
	img.Data[0x2000] = 0x12
	img.Data[0x2001] = 0x34
	img.FixChecksum()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	if err := img.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *img {
		t.Error("round-tripped image differs from original")
	}
}

func TestLoadPadsBareCalibrationFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cal.bin")
	cal := make([]byte, calEnd-calStart)
	cal[0] = 0xAB
	if err := os.WriteFile(path, cal, 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Data[calStart] != 0xAB {
		t.Errorf("calibration byte not placed at 0x%04X", calStart)
	}
	if img.Data[0] != 0xFF {
		t.Error("region outside calibration window should remain erased")
	}
}

func TestLoadRejectsWrongSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("want error for wrong-sized file")
	}
}

func TestOSID(t *testing.T) {
	img := New()
	img.Data[calStart] = 0x4A
	img.Data[calStart+1] = 0xF1
	if got := img.OSID(); got != [2]byte{0x4A, 0xF1} {
		t.Errorf("OSID = %v, want [4A F1]", got)
	}
}

func TestSectorWriteRangeClipsToSector(t *testing.T) {
	sector := bankmap.Sector{Index: 1, FileStart: 0x4000, FileEnd: 0x8000}
	start, end := sectorWriteRange(sector, 0x2000, 0x1C000)
	if start != 0x4000 || end != 0x8000 {
		t.Errorf("range = [0x%X,0x%X), want [0x4000,0x8000)", start, end)
	}

	start, end = sectorWriteRange(sector, 0x4000, 0x8000)
	if start != 0x4000 || end != 0x8000 {
		t.Errorf("CAL-mode range = [0x%X,0x%X), want [0x4000,0x8000)", start, end)
	}
}

func TestFirstMismatch(t *testing.T) {
	want := []byte{1, 2, 3, 4}
	got := []byte{1, 2, 9, 4}
	i, ok := firstMismatch(want, got)
	if !ok || i != 2 {
		t.Errorf("firstMismatch = (%d,%v), want (2,true)", i, ok)
	}
	if _, ok := firstMismatch(want, want); ok {
		t.Error("identical slices should not mismatch")
	}
}
