// Command aldlflash reads, writes, and datalogs a VX/VY PCM's flash
// over a USB-to-ALDL cable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/kingai-forge/aldlflash/aldlcore"
	"github.com/kingai-forge/aldlflash/bankmap"
	"github.com/kingai-forge/aldlflash/image"
)

func main() {
	var (
		port  = flag.String("port", "", "serial port, e.g. /dev/ttyUSB0 or COM3")
		mode  = flag.String("mode", "info", "read | write | datalog | info")
		file  = flag.String("file", "", "flash image path for read/write")
		wmode = flag.String("write-mode", "bin", "bin | cal | prom (write only)")
	)
	flag.Parse()

	if *port == "" {
		log.Fatal("aldlflash: -port is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cs, err := aldlcore.Open(ctx, aldlcore.TransportSpec{SerialPort: *port})
	if err != nil {
		log.Fatalf("aldlflash: open %s: %v", *port, err)
	}
	defer cs.Close()

	switch *mode {
	case "read":
		runRead(ctx, cs, *file)
	case "write":
		runWrite(ctx, cs, *file, *wmode)
	case "datalog":
		runDatalog(ctx, cs)
	case "info":
		runInfo(ctx, cs)
	default:
		log.Fatalf("aldlflash: unknown -mode %q", *mode)
	}
}

func runRead(ctx context.Context, cs *aldlcore.Session, path string) {
	if path == "" {
		log.Fatal("aldlflash: -file is required for -mode read")
	}
	img, err := cs.ReadImage(ctx, func(stage string, done, total int) {
		fmt.Printf("\r%s: %d/%d", stage, done, total)
	})
	fmt.Println()
	if err != nil {
		log.Fatalf("aldlflash: read image: %v", err)
	}
	if err := img.Save(path); err != nil {
		log.Fatalf("aldlflash: save %s: %v", path, err)
	}
	fmt.Printf("saved %s (checksum 0x%04X)\n", path, img.ComputeChecksum())
}

func runWrite(ctx context.Context, cs *aldlcore.Session, path, modeName string) {
	if path == "" {
		log.Fatal("aldlflash: -file is required for -mode write")
	}
	img, err := image.Load(path)
	if err != nil {
		log.Fatalf("aldlflash: load %s: %v", path, err)
	}
	if !img.VerifyChecksum() {
		old, fixed := img.FixChecksum()
		fmt.Printf("fixed checksum 0x%04X -> 0x%04X\n", old, fixed)
	}

	m, err := parseWriteMode(modeName)
	if err != nil {
		log.Fatalf("aldlflash: %v", err)
	}

	report, err := cs.WriteImage(ctx, m, img, nil, func(stage string, done, total int) {
		fmt.Printf("\r%s: %d/%d", stage, done, total)
	})
	fmt.Println()
	if err != nil {
		log.Fatalf("aldlflash: write image: %v (report: last good sector %d)", err, report.LastGoodSector)
	}
	fmt.Printf("write complete, final checksum 0x%04X\n", report.Checksum)
}

func parseWriteMode(name string) (bankmap.Mode, error) {
	switch name {
	case "bin":
		return bankmap.ModeBIN, nil
	case "cal":
		return bankmap.ModeCAL, nil
	case "prom":
		return bankmap.ModePROM, nil
	default:
		return 0, fmt.Errorf("unknown -write-mode %q", name)
	}
}

func runDatalog(ctx context.Context, cs *aldlcore.Session) {
	records, cancel, wait := cs.Datalog(100 * time.Millisecond)
	defer cancel()

	go func() {
		<-ctx.Done()
		cancel()
	}()

	for rec := range records {
		fmt.Printf("RPM=%.0f ECT=%.1fC TPS=%.1f%% AFR=%.1f Batt=%.1fV\n",
			rec["RPM"], rec["ECT Temp"], rec["TPS %"], rec["AFR"], rec["Battery V"])
	}
	if err := wait(); err != nil {
		log.Fatalf("aldlflash: datalog: %v", err)
	}
}

func runInfo(ctx context.Context, cs *aldlcore.Session) {
	info, err := cs.Info(ctx)
	if err != nil {
		log.Fatalf("aldlflash: info: %v", err)
	}
	fmt.Printf("manufacturer=0x%02X device=0x%02X\n", info.Manufacturer, info.Device)
}
