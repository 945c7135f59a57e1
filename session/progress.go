package session

import "sync/atomic"

// Progress is a point-in-time snapshot of a long-running operation.
type Progress struct {
	// Stage names the current phase: "erasing" during EraseSector or
	// "programming" during ProgramBytes.
	Stage string

	BytesDone  int64
	BytesTotal int64
}

// ProgressCallback is called during long-running operations to report
// progress. Implementations should return quickly.
type ProgressCallback func(Progress)

// progressBox publishes Progress snapshots for lock-free reading by a
// goroutine other than the one driving the session. seq is bumped on every
// publish so an observer polling Snapshot can tell whether it has already seen
// the latest snapshot without synchronizing on anything but atomics.
type progressBox struct {
	v   atomic.Value
	seq atomic.Uint64
}

func newProgressBox() *progressBox {
	b := &progressBox{}
	b.v.Store(Progress{})
	return b
}

func (b *progressBox) publish(p Progress) {
	b.v.Store(p)
	b.seq.Add(1)
}

// Snapshot returns the most recently published progress and its sequence
// number. Safe to call from any goroutine.
func (b *progressBox) Snapshot() (Progress, uint64) {
	return b.v.Load().(Progress), b.seq.Load()
}
