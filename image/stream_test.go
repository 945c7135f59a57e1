package image

import (
	"context"
	"testing"
	"time"

	"github.com/kingai-forge/aldlflash/session"
	"github.com/kingai-forge/aldlflash/vecu"
)

func TestDatalogStreamDecodesSamples(t *testing.T) {
	e := vecu.NewECU()
	s, err := session.Open(context.Background(), e)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	records, wait := DatalogStream(ctx, s, 20*time.Millisecond)

	count := 0
	for range records {
		count++
	}
	if err := wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if count == 0 {
		t.Fatal("expected at least one decoded record before cancellation")
	}
}
