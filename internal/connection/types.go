package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no pong)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrConnectionLost  = errors.New("connection lost before response")
)

// Endpoints
const (
	MainnetURL = "wss://www.deribit.com/ws/api/v2"
	TestnetURL = "wss://test.deribit.com/ws/api/v2"
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"` // nil for notifications
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	Method  string          `json:"method,omitempty"` // notifications only
	Params  json.RawMessage `json:"params,omitempty"` // notifications only
	UsIn    int64           `json:"usIn"`             // Server receive time (µs)
	UsOut   int64           `json:"usOut"`            // Server send time (µs)
	Testnet bool            `json:"testnet"`
}

// Decode unmarshals the result into v. If the server answered with an error,
// that error is returned and v is left untouched.
func (r Response) Decode(v any) error {
	if r.Error != nil {
		return r.Error
	}
	if v == nil {
		return nil
	}
	if len(r.Result) == 0 {
		return errors.New("response has neither result nor error")
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("deribit rpc error %d: %s", e.Code, e.Message)
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL (e.g., wss://www.deribit.com/ws/api/v2)
	PingInterval time.Duration // How often to send keepalive pings
	PingTimeout  time.Duration // Max time without pong before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
	Heartbeat    time.Duration // Server heartbeat interval (min 10s); 0 leaves it off
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:          MainnetURL,
		PingInterval: 30 * time.Second,
		PingTimeout:  90 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   10000, // Settlement batches pipeline a few hundred requests
	}
}
