package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"w3batch/jsonrpc"
)

// HTTPConfig configures an HTTP transport.
type HTTPConfig struct {
	URL            string
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// HTTP sends JSON-RPC requests to a single endpoint over HTTP POST.
type HTTP struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewHTTP creates an HTTP transport.
func NewHTTP(cfg HTTPConfig) *HTTP {
	tr := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}

	return &HTTP{
		url: cfg.URL,
		client: &http.Client{
			Transport: tr,
			Timeout:   cfg.RequestTimeout,
		},
		logger: cfg.Logger.With().Str("component", "transport.http").Logger(),
	}
}

// Call sends a single JSON-RPC request.
func (t *HTTP) Call(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	reqBytes, err := req.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := t.post(ctx, reqBytes)
	if err != nil {
		return nil, err
	}

	resp, err := jsonrpc.ParseResponse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp, nil
}

// CallBatch sends requests as a JSON-RPC batch array.
func (t *HTTP) CallBatch(ctx context.Context, reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
	reqBytes, err := jsonrpc.MarshalBatchRequest(reqs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch request: %w", err)
	}

	body, err := t.post(ctx, reqBytes)
	if err != nil {
		return nil, err
	}

	responses, isBatch, err := jsonrpc.ParseBatchResponse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch response: %w", err)
	}
	if !isBatch && len(responses) == 1 && responses[0].HasError() {
		// The server rejected the batch as a whole with a single error
		// object. That is a wire-level failure of the batch call.
		return nil, fmt.Errorf("batch rejected: %w", responses[0].Error)
	}

	t.logger.Debug().Int("requests", len(reqs)).Int("responses", len(responses)).Msg("batch executed")
	return responses, nil
}

func (t *HTTP) post(ctx context.Context, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
