// Package w3batch is a JSON-RPC client with transparent call batching.
// Calls made inside a batching scope are coalesced into wire-level
// batch requests; call sites see the same results and error shapes
// either way.
package w3batch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"w3batch/batch"
	"w3batch/internal/cache"
	"w3batch/jsonrpc"
	"w3batch/transport"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// CacheSize enables the response cache when positive.
	CacheSize int
	// CacheTTL bounds how long cached results are served.
	CacheTTL time.Duration
	// CacheDisabledMethods excludes methods from caching.
	CacheDisabledMethods []string
	Logger               zerolog.Logger
}

// Client issues JSON-RPC calls through a transport. When the context
// carries an active batching scope and the method is batch-safe, the
// call is redirected into the scope's coordinator instead of executing
// immediately.
type Client struct {
	transport     transport.Transport
	cache         cache.Cache
	cacheDisabled map[string]bool
	logger        zerolog.Logger
	reqID         int64
}

// NewClient creates a Client over the given transport.
func NewClient(t transport.Transport, cfg ClientConfig) (*Client, error) {
	var store cache.Cache = cache.Noop{}
	if cfg.CacheSize > 0 {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Second
		}
		mem, err := cache.NewMemory(cfg.CacheSize, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		store = mem
	}

	disabled := make(map[string]bool, len(cfg.CacheDisabledMethods))
	for _, m := range cfg.CacheDisabledMethods {
		disabled[m] = true
	}

	return &Client{
		transport:     t,
		cache:         store,
		cacheDisabled: disabled,
		logger:        cfg.Logger.With().Str("component", "client").Logger(),
	}, nil
}

// Close releases client-held resources. The transport is not closed;
// it may be shared.
func (c *Client) Close() {
	c.cache.Close()
}

// WithBatch opens a batching scope bound to this client's transport.
// Calls made with the returned context are coalesced until the scope
// exits. The scope must be exited, typically with defer.
func (c *Client) WithBatch(ctx context.Context, cfg batch.Config) (context.Context, *batch.Scope) {
	cfg.Logger = c.logger
	return batch.Enter(ctx, c.transport, cfg)
}

// Call executes a JSON-RPC call and returns its raw result. Errors
// reported by the server arrive as *jsonrpc.Error regardless of
// whether the call was batched.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	if params != nil {
		var err error
		raw, err = json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
	}

	cacheable := cache.Cacheable(method, raw, c.cacheDisabled)
	var key string
	if cacheable {
		key = cache.Key(method, raw)
		if result, ok := c.cache.Get(key); ok {
			return result, nil
		}
	}

	result, err := c.dispatch(ctx, method, raw)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.cache.Set(key, result)
	}
	return result, nil
}

// CallInto executes a call and decodes the result into out.
func (c *Client) CallInto(ctx context.Context, method string, params, out interface{}) error {
	result, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || result == nil {
		return nil
	}
	return json.Unmarshal(result, out)
}

// dispatch makes the one routing decision for a call: into the active
// scope's coordinator when the method is batch-safe, directly to the
// transport otherwise.
func (c *Client) dispatch(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	if coord, ok := batch.FromContext(ctx); ok && Batchable(method) {
		pending, err := coord.Submit(batch.Call{Method: method, Params: params})
		if err != nil {
			return nil, err
		}
		return pending.Wait(ctx)
	}

	req := &jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		Method:  method,
		Params:  params,
		ID:      jsonrpc.IntID(atomic.AddInt64(&c.reqID, 1)),
	}
	resp, err := c.transport.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.HasError() {
		return nil, resp.Error
	}
	return resp.Result, nil
}
