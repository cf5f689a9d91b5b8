package transport

import (
	"context"

	"github.com/rs/zerolog"

	"w3batch/jsonrpc"
)

// RetryConfig configures the retry decorator.
type RetryConfig struct {
	Enabled     bool
	MaxAttempts int
}

// Retry wraps a Transport and retries transient failures against the
// same endpoint: transport-level errors, and response errors classified
// as retryable. Batch calls are retried only on wholesale failure;
// per-call errors inside a delivered batch are final.
type Retry struct {
	next   Transport
	config RetryConfig
	logger zerolog.Logger
}

// NewRetry creates a retry decorator around next.
func NewRetry(next Transport, cfg RetryConfig, logger zerolog.Logger) *Retry {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Retry{
		next:   next,
		config: cfg,
		logger: logger.With().Str("component", "transport.retry").Logger(),
	}
}

// Call sends the request, retrying retryable failures.
func (t *Retry) Call(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	if !t.config.Enabled {
		return t.next.Call(ctx, req)
	}

	var lastResp *jsonrpc.Response
	var lastErr error

	for attempt := 0; attempt < t.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := t.next.Call(ctx, req)
		if err == nil && !resp.IsRetryableError() {
			return resp, nil
		}
		lastResp, lastErr = resp, err
		t.logger.Debug().
			Err(err).
			Str("method", req.Method).
			Int("attempt", attempt+1).
			Msg("call failed, retrying")
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return lastResp, nil
}

// CallBatch sends the batch, retrying wholesale failures.
func (t *Retry) CallBatch(ctx context.Context, reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
	if !t.config.Enabled {
		return t.next.CallBatch(ctx, reqs)
	}

	var lastErr error
	for attempt := 0; attempt < t.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		responses, err := t.next.CallBatch(ctx, reqs)
		if err == nil {
			return responses, nil
		}
		lastErr = err
		t.logger.Debug().
			Err(err).
			Int("requests", len(reqs)).
			Int("attempt", attempt+1).
			Msg("batch failed, retrying")
	}
	return nil, lastErr
}
