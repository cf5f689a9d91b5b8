package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"w3batch/jsonrpc"
)

func makeEntries(n int) []*pendingEntry {
	entries := make([]*pendingEntry, n)
	for i := range entries {
		entries[i] = &pendingEntry{
			call: Call{
				Method: "eth_getBalance",
				Params: json.RawMessage(fmt.Sprintf(`["0x%02x"]`, i)),
			},
			slot:       newResultSlot(),
			enqueuedAt: time.Now(),
		}
	}
	return entries
}

func waitEntry(t *testing.T, e *pendingEntry) (json.RawMessage, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return (&PendingResult{slot: e.slot}).Wait(ctx)
}

func TestExecutor_PartialFailureIsolation(t *testing.T) {
	appErr := jsonrpc.NewError(3, "execution reverted")
	tr := &mockTransport{
		handler: func(reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
			responses := make([]*jsonrpc.Response, len(reqs))
			for i, req := range reqs {
				if i == 2 {
					responses[i] = jsonrpc.NewErrorResponse(req.ID, appErr)
				} else {
					responses[i] = jsonrpc.NewResponse(req.ID, req.Params)
				}
			}
			return responses, nil
		},
	}

	e := newBatchExecutor(tr, 3, zerolog.Nop())
	entries := makeEntries(5)
	e.execute(context.Background(), entries)

	for i, entry := range entries {
		result, err := waitEntry(t, entry)
		if i == 2 {
			var rpcErr *jsonrpc.Error
			if !errors.As(err, &rpcErr) || rpcErr.Code != 3 {
				t.Errorf("entry 2 error = %v, want code 3", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("entry %d error = %v, want success", i, err)
			continue
		}
		if want := fmt.Sprintf(`["0x%02x"]`, i); string(result) != want {
			t.Errorf("entry %d result = %s, want %s", i, result, want)
		}
	}
}

func TestExecutor_WholesaleFailureFanout(t *testing.T) {
	wantErr := errors.New("dial tcp: connection refused")
	tr := &mockTransport{
		handler: func([]*jsonrpc.Request) ([]*jsonrpc.Response, error) {
			return nil, wantErr
		},
	}

	e := newBatchExecutor(tr, 3, zerolog.Nop())
	entries := makeEntries(5)
	e.execute(context.Background(), entries)

	for i, entry := range entries {
		if _, err := waitEntry(t, entry); !errors.Is(err, wantErr) {
			t.Errorf("entry %d error = %v, want %v", i, err, wantErr)
		}
	}
}

func TestExecutor_ResponsesMatchedByID(t *testing.T) {
	tr := &mockTransport{
		handler: func(reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
			// Answer in reverse order; fan-out must match by id.
			responses := make([]*jsonrpc.Response, 0, len(reqs))
			for i := len(reqs) - 1; i >= 0; i-- {
				responses = append(responses, jsonrpc.NewResponse(reqs[i].ID, reqs[i].Params))
			}
			return responses, nil
		},
	}

	e := newBatchExecutor(tr, 3, zerolog.Nop())
	entries := makeEntries(4)
	e.execute(context.Background(), entries)

	for i, entry := range entries {
		result, err := waitEntry(t, entry)
		if err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		if want := fmt.Sprintf(`["0x%02x"]`, i); string(result) != want {
			t.Errorf("entry %d result = %s, want %s", i, result, want)
		}
	}
}

func TestExecutor_MissingResponseResolvesSlot(t *testing.T) {
	tr := &mockTransport{
		handler: func(reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
			return []*jsonrpc.Response{jsonrpc.NewResponse(reqs[0].ID, reqs[0].Params)}, nil
		},
	}

	e := newBatchExecutor(tr, 3, zerolog.Nop())
	entries := makeEntries(2)
	e.execute(context.Background(), entries)

	if _, err := waitEntry(t, entries[0]); err != nil {
		t.Errorf("entry 0: %v, want success", err)
	}
	if _, err := waitEntry(t, entries[1]); err == nil {
		t.Error("entry 1 resolved without error despite missing response")
	}
}

func TestExecutor_PanicConvertedToError(t *testing.T) {
	tr := &mockTransport{
		handler: func([]*jsonrpc.Request) ([]*jsonrpc.Response, error) {
			panic("boom")
		},
	}

	e := newBatchExecutor(tr, 3, zerolog.Nop())
	entries := makeEntries(3)
	e.execute(context.Background(), entries)

	for i, entry := range entries {
		_, err := waitEntry(t, entry)
		if err == nil || !strings.Contains(err.Error(), "panic") {
			t.Errorf("entry %d error = %v, want dispatch panic error", i, err)
		}
	}
}

func TestExecutor_ConcurrencyBounded(t *testing.T) {
	var current, peak int32
	tr := &mockTransport{
		handler: func(reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			atomic.AddInt32(&current, -1)

			responses := make([]*jsonrpc.Response, len(reqs))
			for i, req := range reqs {
				responses[i] = jsonrpc.NewResponse(req.ID, req.Params)
			}
			return responses, nil
		},
	}

	cfg := Config{
		MaxBatchSize:         1, // every submission flushes its own batch
		MaxWait:              10 * time.Second,
		MaxConcurrentBatches: 2,
		Logger:               zerolog.Nop(),
	}
	_, scope := Enter(context.Background(), tr, cfg)

	coord := scope.Coordinator()
	for i := 0; i < 6; i++ {
		if _, err := coord.Submit(Call{Method: "eth_chainId"}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	scope.Exit()

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("peak concurrent batches = %d, want <= 2", got)
	}
	if tr.batchCount() != 6 {
		t.Errorf("batch count = %d, want 6", tr.batchCount())
	}
}
