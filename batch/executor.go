package batch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"w3batch/jsonrpc"
)

// Transport is the wire-level batch primitive the coordinator executes
// against. A non-nil error means the batch call failed as a whole;
// per-call failures arrive as error objects inside the responses.
type Transport interface {
	CallBatch(ctx context.Context, reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error)
}

// batchExecutor dispatches drained chunks to the transport and fans
// results back out to each entry's slot. The semaphore bounds
// simultaneous in-flight batches; acquisition happens before dispatch,
// so a flush stalls rather than piling up unbounded in-flight work.
type batchExecutor struct {
	transport Transport
	sem       *semaphore.Weighted
	logger    zerolog.Logger
}

func newBatchExecutor(t Transport, maxConcurrent int, logger zerolog.Logger) *batchExecutor {
	return &batchExecutor{
		transport: t,
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		logger:    logger,
	}
}

// execute runs one batch and resolves every slot in it, on every code
// path. entries must be non-empty and in submission order.
func (e *batchExecutor) execute(ctx context.Context, entries []*pendingEntry) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("batch dispatch panic: %v", r)
			e.logger.Error().Err(err).Msg("batch dispatch failed")
			for _, entry := range entries {
				entry.slot.resolve(nil, err)
			}
		}
	}()

	reqs := make([]*jsonrpc.Request, len(entries))
	for i, entry := range entries {
		reqs[i] = &jsonrpc.Request{
			JSONRPC: jsonrpc.Version,
			Method:  entry.call.Method,
			Params:  entry.call.Params,
			ID:      jsonrpc.IntID(int64(i + 1)),
		}
	}

	// Calls issued while executing the batch must not be captured into
	// a batch again.
	responses, err := e.transport.CallBatch(withDispatch(ctx), reqs)
	if err != nil {
		e.logger.Warn().Err(err).Int("calls", len(entries)).Msg("batch call failed")
		for _, entry := range entries {
			entry.slot.resolve(nil, err)
		}
		return
	}

	byID := make(map[int64]*jsonrpc.Response, len(responses))
	for _, resp := range responses {
		if id, ok := resp.ID.Key().(int64); ok {
			byID[id] = resp
		}
	}

	for i, entry := range entries {
		resp := byID[int64(i+1)]
		switch {
		case resp == nil:
			entry.slot.resolve(nil, fmt.Errorf("no response for batched call %s (index %d)", entry.call.Method, i))
		case resp.HasError():
			entry.slot.resolve(nil, resp.Error)
		default:
			entry.slot.resolve(resp.Result, nil)
		}
	}

	e.logger.Debug().Int("calls", len(entries)).Msg("batch completed")
}
