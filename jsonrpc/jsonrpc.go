// Package jsonrpc implements the JSON-RPC 2.0 wire types used by the
// transports and the batching coordinator: requests, responses, ids and
// error objects, plus helpers for encoding and decoding batch arrays.
package jsonrpc

import "encoding/json"

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ID is a JSON-RPC request/response id: string, number or null.
type ID struct {
	value interface{}
}

// IntID creates a numeric id.
func IntID(n int64) ID {
	return ID{value: n}
}

// StringID creates a string id.
func StringID(s string) ID {
	return ID{value: s}
}

// NullID creates a null id.
func NullID() ID {
	return ID{}
}

// IsNull reports whether the id is null.
func (id ID) IsNull() bool {
	return id.value == nil
}

// Value returns the underlying id value.
func (id ID) Value() interface{} {
	return id.value
}

// Key returns a comparable form of the id, suitable for map keys.
// JSON numbers decode as float64, so numeric ids are normalized to int64
// when they are whole.
func (id ID) Key() interface{} {
	if f, ok := id.value.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return id.value
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &id.value)
}

// Error is a JSON-RPC error object. It is returned unchanged whether a
// call executed singly or as part of a coalesced batch, so callers see
// the same error shape on both paths.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewError creates a JSON-RPC error.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Common protocol errors.
var (
	ErrParse          = NewError(CodeParseError, "Parse error")
	ErrInvalidRequest = NewError(CodeInvalidRequest, "Invalid Request")
	ErrMethodNotFound = NewError(CodeMethodNotFound, "Method not found")
	ErrInvalidParams  = NewError(CodeInvalidParams, "Invalid params")
	ErrInternal       = NewError(CodeInternalError, "Internal error")
)

// skipSpace strips leading JSON whitespace.
func skipSpace(data []byte) []byte {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return data[i:]
		}
	}
	return nil
}
