package w3batch

// batchableMethods is the static allow table of read-only query
// methods eligible for coalescing. Everything else executes as an
// immediate single call, inside or outside a batching scope.
var batchableMethods = map[string]bool{
	"eth_blockNumber":                         true,
	"eth_call":                                true,
	"eth_chainId":                             true,
	"eth_estimateGas":                         true,
	"eth_feeHistory":                          true,
	"eth_gasPrice":                            true,
	"eth_getBalance":                          true,
	"eth_getBlockByHash":                      true,
	"eth_getBlockByNumber":                    true,
	"eth_getBlockReceipts":                    true,
	"eth_getBlockTransactionCountByHash":      true,
	"eth_getBlockTransactionCountByNumber":    true,
	"eth_getCode":                             true,
	"eth_getLogs":                             true,
	"eth_getProof":                            true,
	"eth_getStorageAt":                        true,
	"eth_getTransactionByBlockHashAndIndex":   true,
	"eth_getTransactionByBlockNumberAndIndex": true,
	"eth_getTransactionByHash":                true,
	"eth_getTransactionCount":                 true,
	"eth_getTransactionReceipt":               true,
	"eth_maxPriorityFeePerGas":                true,
	"net_version":                             true,
}

// nonBatchableMethods are rejected from batches by the wire protocol
// itself. The deny set wins over the allow table.
var nonBatchableMethods = map[string]bool{
	"eth_subscribe":   true,
	"eth_unsubscribe": true,
}

// Batchable reports whether a method may be redirected into a batch.
func Batchable(method string) bool {
	return batchableMethods[method] && !nonBatchableMethods[method]
}
