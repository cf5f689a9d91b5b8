package batch

import (
	"encoding/json"
	"sync"
	"time"
)

// Call describes one logical remote call: method name plus encoded
// params. It is immutable once submitted.
type Call struct {
	Method string
	Params json.RawMessage
}

// pendingEntry pairs a submitted call with its result slot. Created on
// submission, removed from the queue exactly once when drained, never
// re-queued.
type pendingEntry struct {
	call       Call
	slot       *resultSlot
	enqueuedAt time.Time
}

// pendingQueue is the ordered collection of calls awaiting dispatch.
// Safe for concurrent append and drain from different goroutines
// sharing one coordinator.
type pendingQueue struct {
	mu      sync.Mutex
	entries []*pendingEntry
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{}
}

// append adds an entry at the tail and returns the new length.
func (q *pendingQueue) append(e *pendingEntry) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
	return len(q.entries)
}

// drainUpTo removes and returns up to n entries from the head,
// preserving submission order. Removal is atomic: no entry is ever
// returned twice.
func (q *pendingQueue) drainUpTo(n int) []*pendingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 || n <= 0 {
		return nil
	}
	if n > len(q.entries) {
		n = len(q.entries)
	}

	drained := q.entries[:n:n]
	q.entries = q.entries[n:]
	return drained
}

// size returns the current queue length.
func (q *pendingQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// oldestAge returns how long the head entry has been queued. The
// second return value is false when the queue is empty.
func (q *pendingQueue) oldestAge(now time.Time) (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return 0, false
	}
	return now.Sub(q.entries[0].enqueuedAt), true
}
