// Package cache provides a read-through cache for JSON-RPC results.
// Only methods whose answers are immutable, or pinned to a concrete
// block number, are eligible; anything keyed on a dynamic block tag
// (latest, pending, ...) is passed through.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Cache stores encoded results keyed by method + params.
type Cache interface {
	Get(key string) (json.RawMessage, bool)
	Set(key string, value json.RawMessage)
	Close()
}

// Key derives the cache key for a call.
func Key(method string, params json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write(params)
	return hex.EncodeToString(h.Sum(nil))
}

// Noop is used when caching is disabled.
type Noop struct{}

func (Noop) Get(string) (json.RawMessage, bool) { return nil, false }
func (Noop) Set(string, json.RawMessage)        {}
func (Noop) Close()                             {}
