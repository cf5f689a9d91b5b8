package cache

import (
	"encoding/json"
	"strings"
)

// cacheability categorizes how a method's result may be cached.
type cacheability int

const (
	notCacheable cacheability = iota
	// alwaysCacheable results are immutable once created (keyed by hash).
	alwaysCacheable
	// blockBound results are cacheable only when the block param is a
	// concrete number rather than a dynamic tag.
	blockBound
)

var methodRules = map[string]cacheability{
	"eth_getBlockByHash":                    alwaysCacheable,
	"eth_getTransactionByHash":              alwaysCacheable,
	"eth_getTransactionReceipt":             alwaysCacheable,
	"eth_getBlockTransactionCountByHash":    alwaysCacheable,
	"eth_getTransactionByBlockHashAndIndex": alwaysCacheable,
	"eth_chainId":                           alwaysCacheable,
	"net_version":                           alwaysCacheable,

	"eth_getBlockByNumber":                    blockBound,
	"eth_getCode":                             blockBound,
	"eth_getBalance":                          blockBound,
	"eth_getStorageAt":                        blockBound,
	"eth_getTransactionCount":                 blockBound,
	"eth_call":                                blockBound,
	"eth_getBlockTransactionCountByNumber":    blockBound,
	"eth_getTransactionByBlockNumberAndIndex": blockBound,
	"eth_getBlockReceipts":                    blockBound,
	"eth_getProof":                            blockBound,
}

// dynamicBlockTags resolve to different data over time.
var dynamicBlockTags = map[string]bool{
	"latest":    true,
	"pending":   true,
	"earliest":  true,
	"safe":      true,
	"finalized": true,
}

// blockParamIndex returns the position of the block parameter for
// block-bound methods, or -1.
func blockParamIndex(method string) int {
	switch method {
	case "eth_getBlockByNumber",
		"eth_getBlockTransactionCountByNumber",
		"eth_getTransactionByBlockNumberAndIndex",
		"eth_getBlockReceipts":
		return 0
	case "eth_getCode", "eth_getBalance", "eth_getTransactionCount", "eth_call":
		return 1
	case "eth_getStorageAt", "eth_getProof":
		return 2
	default:
		return -1
	}
}

// Cacheable reports whether the result of method(params) may be cached.
func Cacheable(method string, params json.RawMessage, disabled map[string]bool) bool {
	if disabled[method] {
		return false
	}

	switch methodRules[method] {
	case alwaysCacheable:
		return true
	case blockBound:
		return hasConcreteBlockParam(method, params)
	default:
		return false
	}
}

func hasConcreteBlockParam(method string, params json.RawMessage) bool {
	if len(params) == 0 {
		return false // missing block param defaults to latest
	}

	var list []json.RawMessage
	if err := json.Unmarshal(params, &list); err != nil {
		return false
	}

	idx := blockParamIndex(method)
	if idx < 0 || idx >= len(list) {
		return false
	}
	return !isDynamicBlockParam(list[idx])
}

// isDynamicBlockParam reports whether a block param is a dynamic tag.
// The param is either a string ("latest", "0x10") or an object with a
// blockNumber/blockHash field (EIP-1898).
func isDynamicBlockParam(param json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(param, &s); err == nil {
		return dynamicBlockTags[strings.ToLower(s)]
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(param, &obj); err != nil {
		return true // unparseable, assume dynamic
	}
	if _, ok := obj["blockHash"]; ok {
		return false
	}
	if n, ok := obj["blockNumber"].(string); ok {
		return dynamicBlockTags[strings.ToLower(n)]
	}
	return true
}
