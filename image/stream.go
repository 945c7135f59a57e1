package image

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingai-forge/aldlflash/session"
)

// DatalogStream polls s for mode 1 datastream samples at the given
// cadence and decodes each into a DatalogRecord on records, until ctx is
// done. s must be in StateIdle for the duration; this is mutually
// exclusive with any programming operation on the same session. The
// returned wait function blocks until the worker goroutine exits and
// returns its error, nil whenever ctx simply ran out (cancelled or
// deadline reached) rather than a request actually failing.
func DatalogStream(ctx context.Context, s *session.Session, interval time.Duration) (records <-chan DatalogRecord, wait func() error) {
	out := make(chan DatalogRecord)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				payload, err := s.RequestDatalog(gctx)
				if err != nil {
					return err
				}
				rec := DecodeDatalogRecord(payload)
				select {
				case out <- rec:
				case <-gctx.Done():
					return nil
				}
			}
		}
	})

	return out, g.Wait
}
