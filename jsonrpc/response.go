package jsonrpc

import (
	"encoding/json"
	"strings"
)

// Response is a single JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      ID              `json:"id"`
}

// NewResponse creates a successful response with a raw result.
func NewResponse(id ID, result json.RawMessage) *Response {
	return &Response{
		JSONRPC: Version,
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id ID, err *Error) *Response {
	return &Response{
		JSONRPC: Version,
		Error:   err,
		ID:      id,
	}
}

// HasError reports whether the response carries an error object.
func (r *Response) HasError() bool {
	return r.Error != nil
}

// UnmarshalResult decodes the result into v.
func (r *Response) UnmarshalResult(v interface{}) error {
	if r.Result == nil {
		return nil
	}
	return json.Unmarshal(r.Result, v)
}

// Bytes encodes the response as JSON.
func (r *Response) Bytes() ([]byte, error) {
	return json.Marshal(r)
}

// ParseResponse decodes a single response.
func ParseResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ParseBatchResponse decodes a response body that may be a batch array
// or a single object. Servers answer a malformed batch with a single
// error object, so both shapes must be accepted. The second return
// value reports whether the body was an array.
func ParseBatchResponse(data []byte) ([]*Response, bool, error) {
	data = skipSpace(data)
	if len(data) == 0 {
		return nil, false, ErrInvalidRequest
	}

	if data[0] == '[' {
		var responses []*Response
		if err := json.Unmarshal(data, &responses); err != nil {
			return nil, true, err
		}
		return responses, true, nil
	}

	resp, err := ParseResponse(data)
	if err != nil {
		return nil, false, err
	}
	return []*Response{resp}, false, nil
}

// IsRetryableError reports whether the response error is worth retrying
// against the same endpoint. Errors describing a defect in the request
// itself, or a deterministic execution outcome, are not.
func (r *Response) IsRetryableError() bool {
	if r.Error == nil {
		return false
	}

	switch r.Error.Code {
	case CodeParseError, CodeInvalidRequest, CodeInvalidParams:
		return false
	}

	// Deterministic node-side outcomes; retrying yields the same answer.
	msg := strings.ToLower(r.Error.Message)
	for _, s := range []string{
		"execution reverted",
		"insufficient funds",
		"nonce too low",
		"nonce too high",
		"already known",
		"replacement transaction underpriced",
	} {
		if strings.Contains(msg, s) {
			return false
		}
	}

	return true
}
