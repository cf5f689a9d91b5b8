package batch

import (
	"context"
	"sync"

	"w3batch/jsonrpc"
)

// mockTransport records batch calls and answers each request by
// echoing its params as the result, unless a handler is installed.
type mockTransport struct {
	mu      sync.Mutex
	batches [][]*jsonrpc.Request
	handler func(reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error)
}

func (m *mockTransport) CallBatch(ctx context.Context, reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
	m.mu.Lock()
	m.batches = append(m.batches, reqs)
	handler := m.handler
	m.mu.Unlock()

	if handler != nil {
		return handler(reqs)
	}

	responses := make([]*jsonrpc.Response, len(reqs))
	for i, req := range reqs {
		responses[i] = jsonrpc.NewResponse(req.ID, req.Params)
	}
	return responses, nil
}

func (m *mockTransport) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockTransport) batch(i int) []*jsonrpc.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches[i]
}
