package batch

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type outcome struct {
	result json.RawMessage
	err    error
}

// resultSlot is a single-assignment container written by the executor
// and read by the one caller awaiting it. The sync.Once makes the
// exactly-once invariant structural: a second resolve on any path is
// a no-op.
type resultSlot struct {
	once sync.Once
	ch   chan outcome
}

func newResultSlot() *resultSlot {
	return &resultSlot{ch: make(chan outcome, 1)}
}

func (s *resultSlot) resolve(result json.RawMessage, err error) {
	s.once.Do(func() {
		s.ch <- outcome{result: result, err: err}
	})
}

// PendingResult is the handle returned by Submit. Exactly one caller
// waits on it. The deadline is anchored at submission, so time spent
// queued counts against the per-call timeout; a zero deadline means
// the timeout is disabled.
type PendingResult struct {
	slot     *resultSlot
	deadline time.Time
}

// Wait blocks until the call resolves, the per-call deadline passes,
// or ctx is done.
//
// On timeout only the wait is abandoned: the underlying entry stays
// queued and executes with its batch, its result discarded since
// nothing awaits it. Removing it instead would change the composition
// of the batch it was already ordered into.
func (p *PendingResult) Wait(ctx context.Context) (json.RawMessage, error) {
	var timeoutCh <-chan time.Time
	if !p.deadline.IsZero() {
		timer := time.NewTimer(time.Until(p.deadline))
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case o := <-p.slot.ch:
		return o.result, o.err
	case <-timeoutCh:
		return nil, ErrWaitTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
