package transport

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"w3batch/jsonrpc"
)

// WSConfig configures a WebSocket transport.
type WSConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	Logger           zerolog.Logger
}

// WS sends JSON-RPC requests over a single WebSocket connection,
// multiplexing concurrent calls on it. Wire ids are assigned by the
// transport; responses are matched back to callers by id and returned
// carrying the caller's original id.
type WS struct {
	url              string
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	logger           zerolog.Logger

	conn    *websocket.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	reqID     int64
	pending   map[int64]chan *jsonrpc.Response
	pendingMu sync.Mutex

	// closed when the reader loop exits; readErr holds the cause.
	done    chan struct{}
	readErr error
}

// NewWS creates a WebSocket transport. Connect must be called before use.
func NewWS(cfg WSConfig) *WS {
	handshake := cfg.HandshakeTimeout
	if handshake == 0 {
		handshake = 10 * time.Second
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 60 * time.Second
	}
	return &WS{
		url:              cfg.URL,
		handshakeTimeout: handshake,
		readTimeout:      readTimeout,
		logger:           cfg.Logger.With().Str("component", "transport.ws").Logger(),
		pending:          make(map[int64]chan *jsonrpc.Response),
	}
}

// Connect establishes the connection and starts the reader loop.
func (t *WS) Connect(ctx context.Context) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()
	if t.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: t.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect WebSocket: %w", err)
	}

	t.conn = conn
	t.done = make(chan struct{})
	t.readErr = nil
	t.logger.Info().Str("url", t.url).Msg("WebSocket connected")

	// Pongs extend the read deadline, so an idle but healthy
	// connection survives as long as the ping loop runs.
	if err := conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		conn.Close()
		t.conn = nil
		return fmt.Errorf("failed to arm read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(t.readTimeout))
	})

	go t.readLoop(conn, t.done)
	go t.pingLoop(conn, t.done)
	return nil
}

// Close tears down the connection. Pending calls fail.
func (t *WS) Close() error {
	t.connMu.Lock()
	conn := t.conn
	t.conn = nil
	t.connMu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Call sends a single request and waits for its response.
func (t *WS) Call(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	responses, err := t.send(ctx, []*jsonrpc.Request{req}, false)
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

// CallBatch sends requests as one batch frame and waits for every
// response. Responses are returned in request order.
func (t *WS) CallBatch(ctx context.Context, reqs []*jsonrpc.Request) ([]*jsonrpc.Response, error) {
	return t.send(ctx, reqs, true)
}

func (t *WS) send(ctx context.Context, reqs []*jsonrpc.Request, batch bool) ([]*jsonrpc.Response, error) {
	t.connMu.RLock()
	conn := t.conn
	done := t.done
	t.connMu.RUnlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	// Rewrite ids so concurrent callers cannot collide on the shared
	// connection; the caller's ids are restored on the way back.
	wireIDs := make([]int64, len(reqs))
	wireReqs := make([]*jsonrpc.Request, len(reqs))
	channels := make([]chan *jsonrpc.Response, len(reqs))

	t.pendingMu.Lock()
	for i, req := range reqs {
		id := atomic.AddInt64(&t.reqID, 1)
		wireIDs[i] = id
		wireReqs[i] = req.WithID(jsonrpc.IntID(id))
		ch := make(chan *jsonrpc.Response, 1)
		channels[i] = ch
		t.pending[id] = ch
	}
	t.pendingMu.Unlock()

	defer func() {
		t.pendingMu.Lock()
		for _, id := range wireIDs {
			delete(t.pending, id)
		}
		t.pendingMu.Unlock()
	}()

	var payload []byte
	var err error
	if batch {
		payload, err = jsonrpc.MarshalBatchRequest(wireReqs)
	} else {
		payload, err = wireReqs[0].Bytes()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	t.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	t.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("WebSocket write failed: %w", err)
	}

	responses := make([]*jsonrpc.Response, len(reqs))
	for i := range reqs {
		select {
		case resp := <-channels[i]:
			resp.ID = reqs[i].ID
			responses[i] = resp
		case <-done:
			return nil, fmt.Errorf("WebSocket connection lost: %w", t.readErr)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return responses, nil
}

func (t *WS) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			t.teardown(conn, err)
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.teardown(conn, err)
			return
		}

		responses, _, err := jsonrpc.ParseBatchResponse(data)
		if err != nil {
			t.logger.Warn().Err(err).Msg("dropping unparseable WebSocket message")
			continue
		}
		for _, resp := range responses {
			t.dispatch(resp)
		}
	}
}

// pingLoop keeps an otherwise idle connection alive. The peer's pongs
// push the read deadline forward, so only a dead connection lets the
// deadline expire.
func (t *WS) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(t.readTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			t.writeMu.Unlock()
			if err != nil {
				t.logger.Warn().Err(err).Msg("WebSocket ping failed")
				return
			}
		}
	}
}

func (t *WS) teardown(conn *websocket.Conn, err error) {
	t.readErr = err
	t.connMu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.connMu.Unlock()
	conn.Close()
	t.logger.Warn().Err(err).Msg("WebSocket read failed, connection closed")
}

func (t *WS) dispatch(resp *jsonrpc.Response) {
	id, ok := resp.ID.Key().(int64)
	if !ok {
		t.logger.Debug().Msg("dropping response with non-numeric id")
		return
	}

	t.pendingMu.Lock()
	ch := t.pending[id]
	delete(t.pending, id)
	t.pendingMu.Unlock()

	if ch == nil {
		t.logger.Debug().Int64("id", id).Msg("dropping response with no waiter")
		return
	}
	ch <- resp
}
