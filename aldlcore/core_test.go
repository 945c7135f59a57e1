package aldlcore

import (
	"context"
	"testing"
	"time"

	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/image"
	"github.com/kingai-forge/aldlflash/vecu"
)

func openVirtual(t *testing.T) *Session {
	t.Helper()
	e := vecu.NewECU()
	cs, err := OpenTransport(context.Background(), e)
	if err != nil {
		t.Fatalf("OpenTransport: %v", err)
	}
	return cs
}

func TestInfoReportsAMD29F010(t *testing.T) {
	cs := openVirtual(t)
	defer cs.Close()

	info, err := cs.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Manufacturer != 0x01 || info.Device != 0x20 {
		t.Errorf("Info = %+v, want (0x01, 0x20)", info)
	}
}

func TestWriteImageThenReadImageRoundTrips(t *testing.T) {
	cs := openVirtual(t)
	defer cs.Close()
	ctx := context.Background()

	img := image.New()
	img.Data[0x4000] = 0x4A
	img.Data[0x4001] = 0xF1
	img.FixChecksum()

	var stages []string
	report, err := cs.WriteImage(ctx, bankmap.ModeCAL, img, nil, func(stage string, done, total int) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatalf("WriteImage: %v, report=%+v", err, report)
	}
	if !report.Complete() {
		t.Fatalf("report not complete: %+v", report)
	}
	if len(stages) == 0 {
		t.Error("expected at least one progress callback during write")
	}

	back, err := cs.ReadImage(ctx, nil)
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	if back.Data[0x4000] != 0x4A || back.Data[0x4001] != 0xF1 {
		t.Error("read-back calibration bytes do not match what was written")
	}
}

func TestDatalogCancellation(t *testing.T) {
	cs := openVirtual(t)
	defer cs.Close()

	records, cancel, wait := cs.Datalog(10 * time.Millisecond)

	count := 0
	for range records {
		count++
		if count >= 2 {
			cancel()
		}
	}
	if err := wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if count < 2 {
		t.Errorf("got %d records before cancellation, want >= 2", count)
	}
}
