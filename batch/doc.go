// Package batch coalesces logically independent JSON-RPC calls into
// fewer wire-level batch requests without the call sites being aware
// of it.
//
// A caller opens a batching scope with Enter, which activates a
// Coordinator and binds it to the returned context. Call sites running
// under that context submit their calls to the Coordinator instead of
// executing them directly and wait on the returned PendingResult. The
// Coordinator accumulates submissions and flushes the queue when it
// reaches the size threshold, when the oldest entry ages past the wait
// threshold, or when the scope exits. Concurrently running call trees
// with separate scopes never share a batch.
//
// Example:
//
//	ctx, scope := batch.Enter(ctx, tr, batch.Config{MaxBatchSize: 10})
//	defer scope.Exit()
//
//	for _, addr := range addrs {
//		go func(addr string) {
//			balance, err := client.Call(ctx, "eth_getBalance", []any{addr, "latest"})
//			...
//		}(addr)
//	}
package batch
