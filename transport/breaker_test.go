package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"w3batch/jsonrpc"
)

// flakyTransport fails every call until fixed.
type flakyTransport struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (f *flakyTransport) Call(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return jsonrpc.NewResponse(req.ID, nil), nil
}

func (f *flakyTransport) CallBatch(ctx context.Context, reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("connection refused")
	}
	responses := make([]*jsonrpc.Response, len(reqs))
	for i, req := range reqs {
		responses[i] = jsonrpc.NewResponse(req.ID, nil)
	}
	return responses, nil
}

func (f *flakyTransport) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *flakyTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	next := &flakyTransport{fail: true}
	b := NewBreaker(next, BreakerConfig{
		Enabled:          true,
		FailureThreshold: 3,
		RecoveryTimeout:  time.Hour,
	})

	req, _ := jsonrpc.NewRequest("eth_chainId", nil, jsonrpc.IntID(1))
	for i := 0; i < 3; i++ {
		if _, err := b.Call(context.Background(), req); err == nil {
			t.Fatalf("call %d unexpectedly succeeded", i)
		}
	}

	if _, err := b.Call(context.Background(), req); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if next.callCount() != 3 {
		t.Errorf("underlying calls = %d, want 3 (breaker short-circuits)", next.callCount())
	}
}

func TestBreaker_RecoversAfterTimeout(t *testing.T) {
	next := &flakyTransport{fail: true}
	b := NewBreaker(next, BreakerConfig{
		Enabled:             true,
		FailureThreshold:    1,
		RecoveryTimeout:     20 * time.Millisecond,
		HalfOpenMaxRequests: 1,
	})

	req, _ := jsonrpc.NewRequest("eth_chainId", nil, jsonrpc.IntID(1))
	b.Call(context.Background(), req) // trips the breaker

	if _, err := b.Call(context.Background(), req); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}

	next.setFail(false)
	time.Sleep(30 * time.Millisecond)

	if _, err := b.Call(context.Background(), req); err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	if _, err := b.Call(context.Background(), req); err != nil {
		t.Fatalf("call after recovery failed: %v", err)
	}
}

func TestBreaker_DisabledPassthrough(t *testing.T) {
	next := &flakyTransport{fail: true}
	b := NewBreaker(next, BreakerConfig{Enabled: false, FailureThreshold: 1})

	req, _ := jsonrpc.NewRequest("eth_chainId", nil, jsonrpc.IntID(1))
	for i := 0; i < 5; i++ {
		if _, err := b.Call(context.Background(), req); errors.Is(err, ErrCircuitOpen) {
			t.Fatal("disabled breaker short-circuited")
		}
	}
	if next.callCount() != 5 {
		t.Errorf("underlying calls = %d, want 5", next.callCount())
	}
}
