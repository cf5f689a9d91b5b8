package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"w3batch/jsonrpc"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("transport: circuit breaker open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// BreakerConfig configures the circuit breaker decorator.
type BreakerConfig struct {
	Enabled             bool
	FailureThreshold    int
	RecoveryTimeout     time.Duration
	HalfOpenMaxRequests int
}

// Breaker wraps a Transport and short-circuits calls to an endpoint
// after consecutive transport failures, probing it again after a
// recovery timeout. Per-call errors inside delivered responses do not
// count as failures; only wire-level failures trip the breaker.
type Breaker struct {
	next            Transport
	cfg             BreakerConfig
	state           breakerState
	failures        int
	halfOpenSuccess int
	lastFailureAt   time.Time
	mu              sync.Mutex
}

// NewBreaker creates a circuit breaker around next.
func NewBreaker(next Transport, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = 2
	}
	return &Breaker{
		next:  next,
		cfg:   cfg,
		state: breakerClosed,
	}
}

// Call forwards a single request through the breaker.
func (b *Breaker) Call(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	if !b.allow() {
		return nil, ErrCircuitOpen
	}
	resp, err := b.next.Call(ctx, req)
	b.record(err == nil)
	return resp, err
}

// CallBatch forwards a batch through the breaker.
func (b *Breaker) CallBatch(ctx context.Context, reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
	if !b.allow() {
		return nil, ErrCircuitOpen
	}
	responses, err := b.next.CallBatch(ctx, reqs)
	b.record(err == nil)
	return responses, err
}

func (b *Breaker) allow() bool {
	if !b.cfg.Enabled {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerHalfOpen:
		return b.halfOpenSuccess < b.cfg.HalfOpenMaxRequests
	case breakerOpen:
		if time.Since(b.lastFailureAt) >= b.cfg.RecoveryTimeout {
			b.state = breakerHalfOpen
			b.halfOpenSuccess = 0
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) record(success bool) {
	if !b.cfg.Enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		switch b.state {
		case breakerHalfOpen:
			b.halfOpenSuccess++
			if b.halfOpenSuccess >= b.cfg.HalfOpenMaxRequests {
				b.state = breakerClosed
				b.failures = 0
			}
		case breakerClosed:
			b.failures = 0
		}
		return
	}

	b.lastFailureAt = time.Now()
	switch b.state {
	case breakerClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = breakerOpen
		}
	case breakerHalfOpen:
		b.state = breakerOpen
		b.halfOpenSuccess = 0
	}
}
