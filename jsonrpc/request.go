package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Request is a single JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      ID              `json:"id"`
}

// NewRequest creates a request, marshaling params if present.
func NewRequest(method string, params interface{}, id ID) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		Method:  method,
		ID:      id,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = raw
	}
	return req, nil
}

// Validate checks basic request well-formedness.
func (r *Request) Validate() error {
	if r.JSONRPC != Version {
		return fmt.Errorf("invalid jsonrpc version: %q", r.JSONRPC)
	}
	if r.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// WithID returns a copy of the request carrying the given id.
// Params are shared, not copied; requests are treated as immutable
// once built.
func (r *Request) WithID(id ID) *Request {
	clone := *r
	clone.ID = id
	return &clone
}

// Bytes encodes the request as JSON.
func (r *Request) Bytes() ([]byte, error) {
	return json.Marshal(r)
}

// ParseRequest decodes a single request.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// MarshalBatchRequest encodes requests as a JSON-RPC batch array.
func MarshalBatchRequest(requests []*Request) ([]byte, error) {
	return json.Marshal(requests)
}
