package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Session methods handled by the transport itself.
const (
	MethodSetHeartbeat = "public/set_heartbeat"
	MethodTest         = "public/test"
)

// MinHeartbeat is the shortest heartbeat interval Deribit accepts.
const MinHeartbeat = 10 * time.Second

// RPC issues JSON-RPC requests over a Client and matches responses to
// requests by id.
type RPC struct {
	client Client
	logger *slog.Logger

	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan Response
	err     error // Set once the connection is lost

	done      chan struct{}
	closeOnce sync.Once
}

// NewRPC starts dispatching responses from an already connected client.
func NewRPC(client Client, logger *slog.Logger) *RPC {
	if logger == nil {
		logger = slog.Default()
	}
	r := &RPC{
		client:  client,
		logger:  logger,
		pending: make(map[uint64]chan Response),
		done:    make(chan struct{}),
	}
	go r.dispatchLoop()
	return r
}

// Dial connects a new client and wraps it in an RPC.
func Dial(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*RPC, error) {
	c := NewClient(cfg, logger)
	if err := c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.URL, err)
	}
	r := NewRPC(c, logger)
	if cfg.Heartbeat > 0 {
		if err := r.SetHeartbeat(ctx, cfg.Heartbeat); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

// SetHeartbeat asks the server to send heartbeat notifications every interval.
// Its test_request messages are answered automatically; a server that stops
// hearing answers closes the connection.
func (r *RPC) SetHeartbeat(ctx context.Context, interval time.Duration) error {
	params := map[string]int{"interval": int(interval / time.Second)}
	var ok string
	return r.Call(ctx, MethodSetHeartbeat, params, &ok)
}

// Close stops dispatching and closes the underlying connection.
func (r *RPC) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		err = r.client.Close()
		r.fail(ErrAlreadyClosed)
	})
	return err
}

// Call sends a request and waits for its response. A response carrying an
// error member is returned as *RPCError; result is only decoded on success.
func (r *RPC) Call(ctx context.Context, method string, params, result any) error {
	id, ch, err := r.send(method, params)
	if err != nil {
		return err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return r.lostErr()
		}
		if err := resp.Decode(result); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		r.forget(id)
		return fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// Pipeline starts a batch of requests that are sent without waiting and
// collected together with Drain.
func (r *RPC) Pipeline() *Pipeline {
	return &Pipeline{rpc: r}
}

// send registers a waiter and writes the request.
func (r *RPC) send(method string, params any) (uint64, chan Response, error) {
	id := r.nextID.Add(1)
	ch := make(chan Response, 1)

	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return 0, nil, fmt.Errorf("send %s: %w", method, err)
	}
	r.pending[id] = ch
	r.mu.Unlock()

	data, err := json.Marshal(Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		r.forget(id)
		return 0, nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	if err := r.client.Send(data); err != nil {
		r.forget(id)
		return 0, nil, fmt.Errorf("send %s: %w", method, err)
	}

	return id, ch, nil
}

func (r *RPC) forget(id uint64) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

func (r *RPC) lostErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	return ErrConnectionLost
}

// dispatchLoop routes incoming responses to their waiters.
func (r *RPC) dispatchLoop() {
	for {
		select {
		case <-r.done:
			return
		case msg := <-r.client.Messages():
			r.dispatch(msg.Data)
		case err := <-r.client.Errors():
			r.logger.Warn("rpc connection lost", "error", err, "pending", r.pendingCount())
			r.fail(fmt.Errorf("%w: %v", ErrConnectionLost, err))
			return
		}
	}
}

func (r *RPC) dispatch(data []byte) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		r.logger.Warn("failed to decode rpc message", "error", err, "bytes", len(data))
		return
	}
	if resp.ID == nil {
		r.notify(resp)
		return
	}

	r.mu.Lock()
	ch, ok := r.pending[*resp.ID]
	delete(r.pending, *resp.ID)
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("response for unknown request", "id", *resp.ID)
		return
	}
	ch <- resp
}

// notify handles server-initiated messages. Only heartbeat test requests need
// an answer.
func (r *RPC) notify(resp Response) {
	if resp.Method != "heartbeat" {
		r.logger.Debug("ignoring notification", "method", resp.Method)
		return
	}
	var hb struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(resp.Params, &hb); err != nil || hb.Type != "test_request" {
		return
	}
	// The reply lands in its buffered waiter and is discarded.
	if _, _, err := r.send(MethodTest, nil); err != nil {
		r.logger.Debug("failed to answer heartbeat", "error", err)
	}
}

// fail wakes every waiter; later sends fail fast with err.
func (r *RPC) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
	for id, ch := range r.pending {
		close(ch)
		delete(r.pending, id)
	}
}

func (r *RPC) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
