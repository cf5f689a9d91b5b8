package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Default configuration values.
const (
	DefaultMaxBatchSize         = 20
	DefaultMaxWait              = 100 * time.Millisecond
	DefaultCallTimeout          = 60 * time.Second
	DefaultMaxConcurrentBatches = 3

	// pollInterval is how often the scheduler re-checks the age
	// trigger, bounding how late an age-based flush can fire.
	pollInterval = 100 * time.Millisecond
)

// Config holds coordinator configuration. The zero value gets defaults.
type Config struct {
	// MaxBatchSize is the number of queued calls that forces a flush,
	// and the chunk size batches are dispatched in.
	MaxBatchSize int
	// MaxWait is the maximum age of the oldest queued call before a
	// flush is forced.
	MaxWait time.Duration
	// CallTimeout bounds how long a caller waits for its own result.
	// Zero means DefaultCallTimeout; negative disables the timeout.
	CallTimeout time.Duration
	// MaxConcurrentBatches bounds simultaneous in-flight batch calls.
	MaxConcurrentBatches int
	Logger               zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.MaxWait <= 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultCallTimeout
	} else if c.CallTimeout < 0 {
		c.CallTimeout = 0
	}
	if c.MaxConcurrentBatches <= 0 {
		c.MaxConcurrentBatches = DefaultMaxConcurrentBatches
	}
	return c
}

type coordState int

const (
	stateActive coordState = iota
	stateDraining
	stateClosed
)

// Coordinator accepts call submissions for one batching scope and
// owns the pending queue, the flush scheduler and the in-flight
// executors. Create one with Enter; it stops accepting submissions
// once the scope exits.
type Coordinator struct {
	cfg    Config
	queue  *pendingQueue
	exec   *batchExecutor
	sched  *flushScheduler
	logger zerolog.Logger

	// flushMu serializes the check-and-drain decision so the size
	// trigger and the age trigger can never drain overlapping
	// portions of the queue.
	flushMu sync.Mutex

	stateMu sync.RWMutex
	state   coordState

	inflight sync.WaitGroup
}

func newCoordinator(t Transport, cfg Config) *Coordinator {
	cfg = cfg.withDefaults()
	logger := cfg.Logger.With().Str("component", "batch").Logger()

	c := &Coordinator{
		cfg:    cfg,
		queue:  newPendingQueue(),
		exec:   newBatchExecutor(t, cfg.MaxConcurrentBatches, logger),
		logger: logger,
		state:  stateActive,
	}
	c.sched = startFlushScheduler(pollInterval, func() { c.flush(false) })

	logger.Debug().
		Int("maxBatchSize", cfg.MaxBatchSize).
		Dur("maxWait", cfg.MaxWait).
		Int("maxConcurrentBatches", cfg.MaxConcurrentBatches).
		Msg("batch scope opened")
	return c
}

// Submit queues a call for batched execution and returns the handle
// the caller waits on. Returns ErrCoordinatorClosed once the scope has
// begun exiting.
func (c *Coordinator) Submit(call Call) (*PendingResult, error) {
	// The state check and the append must be indivisible with respect
	// to exit: once exit moves the state past Active, no new entry can
	// land behind its final drain.
	c.stateMu.RLock()
	if c.state != stateActive {
		c.stateMu.RUnlock()
		return nil, ErrCoordinatorClosed
	}
	entry := &pendingEntry{
		call:       call,
		slot:       newResultSlot(),
		enqueuedAt: time.Now(),
	}
	size := c.queue.append(entry)
	c.stateMu.RUnlock()

	if size >= c.cfg.MaxBatchSize {
		c.flush(false)
	}

	var deadline time.Time
	if c.cfg.CallTimeout > 0 {
		deadline = entry.enqueuedAt.Add(c.cfg.CallTimeout)
	}
	return &PendingResult{slot: entry.slot, deadline: deadline}, nil
}

// flush evaluates the flush conditions under the decision lock and, on
// a true condition, drains the entire queue in size-bounded chunks.
func (c *Coordinator) flush(force bool) {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	size := c.queue.size()
	if size == 0 {
		return
	}
	if !force && size < c.cfg.MaxBatchSize {
		age, ok := c.queue.oldestAge(time.Now())
		if !ok || age < c.cfg.MaxWait {
			return
		}
	}

	for {
		chunk := c.queue.drainUpTo(c.cfg.MaxBatchSize)
		if len(chunk) == 0 {
			return
		}

		// Acquire before spawning: past the concurrency limit the
		// flusher (and through it, submitters) stalls instead of
		// accumulating unbounded in-flight batches.
		if err := c.exec.sem.Acquire(context.Background(), 1); err != nil {
			for _, entry := range chunk {
				entry.slot.resolve(nil, err)
			}
			continue
		}

		c.inflight.Add(1)
		go func(entries []*pendingEntry) {
			defer c.inflight.Done()
			defer c.exec.sem.Release(1)
			c.exec.execute(context.Background(), entries)
		}(chunk)
	}
}

// exit drains the remainder and shuts the coordinator down: scheduler
// first, then a forced flush, then wait for in-flight batches. After
// exit returns, the queue is empty and every slot is resolved.
func (c *Coordinator) exit() {
	c.stateMu.Lock()
	if c.state != stateActive {
		c.stateMu.Unlock()
		return
	}
	c.state = stateDraining
	c.stateMu.Unlock()

	c.sched.stop()
	c.flush(true)
	c.inflight.Wait()

	c.stateMu.Lock()
	c.state = stateClosed
	c.stateMu.Unlock()

	c.logger.Debug().Msg("batch scope closed")
}

func (c *Coordinator) active() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state == stateActive
}
