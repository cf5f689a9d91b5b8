package batch

import (
	"context"
	"time"
)

// flushScheduler periodically runs the coordinator's flush check so
// that entries aged past the wait threshold get dispatched even when
// no further submissions arrive. It never drains the queue itself;
// size- and age-triggered flushes share the coordinator's single
// flush path.
type flushScheduler struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startFlushScheduler(interval time.Duration, check func()) *flushScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &flushScheduler{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()

	return s
}

// stop cancels the poll loop and waits for it to exit, so no check
// fires after stop returns.
func (s *flushScheduler) stop() {
	s.cancel()
	<-s.done
}
