package connection

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const handshakeTimeout = 10 * time.Second

// Client is one WebSocket connection to a Deribit endpoint.
type Client interface {
	Connect(ctx context.Context) error
	Close() error

	// Send writes one text frame.
	Send(data []byte) error

	// Messages delivers every inbound text frame with its local receive time.
	Messages() <-chan TimestampedMessage

	// Errors delivers at most one error: the reason the connection ended.
	Errors() <-chan error

	IsConnected() bool
}

type client struct {
	cfg    ClientConfig
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla allows one concurrent writer

	messages chan TimestampedMessage
	errors   chan error
	done     chan struct{}

	connected atomic.Bool
	closed    atomic.Bool
	lastSeen  atomic.Int64 // unix nanos of the last inbound frame of any kind
	failOnce  sync.Once
}

// NewClient creates an unconnected client.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &client{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan TimestampedMessage, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
}

func (c *client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrAlreadyClosed
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return err
	}

	c.conn = conn
	c.touch()

	// Deribit answers our pings and may ping us; both prove the peer is alive.
	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})
	conn.SetPingHandler(func(data string) error {
		c.touch()
		return c.writeFrame(websocket.PongMessage, []byte(data), time.Second)
	})

	c.connected.Store(true)
	go c.readLoop()
	if c.cfg.PingInterval > 0 {
		go c.keepalive()
	}

	c.logger.Debug("websocket connected", "url", c.cfg.URL)
	return nil
}

func (c *client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.connected.Store(false)
	close(c.done)

	if c.conn == nil {
		return nil
	}
	c.writeFrame(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Second)
	return c.conn.Close()
}

func (c *client) Send(data []byte) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	return c.writeFrame(websocket.TextMessage, data, c.cfg.WriteTimeout)
}

func (c *client) Messages() <-chan TimestampedMessage { return c.messages }

func (c *client) Errors() <-chan error { return c.errors }

func (c *client) IsConnected() bool { return c.connected.Load() }

// writeFrame serializes all writes, control frames included.
func (c *client) writeFrame(kind int, data []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(timeout)
	switch kind {
	case websocket.TextMessage, websocket.BinaryMessage:
		c.conn.SetWriteDeadline(deadline)
		return c.conn.WriteMessage(kind, data)
	default:
		return c.conn.WriteControl(kind, data, deadline)
	}
}

func (c *client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

func (c *client) idle() time.Duration {
	return time.Since(time.Unix(0, c.lastSeen.Load()))
}

// fail reports why the connection ended, unless Close already ran.
func (c *client) fail(err error) {
	c.connected.Store(false)
	if c.closed.Load() {
		return
	}
	c.failOnce.Do(func() { c.errors <- err })
}

func (c *client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		c.touch()

		// Never drop: a lost frame is a lost RPC response.
		select {
		case c.messages <- TimestampedMessage{Data: data, ReceivedAt: time.Now()}:
		case <-c.done:
			return
		}
	}
}

// keepalive pings on PingInterval and fails the connection once nothing has
// arrived for PingTimeout.
func (c *client) keepalive() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		if err := c.writeFrame(websocket.PingMessage, nil, c.cfg.WriteTimeout); err != nil {
			c.logger.Debug("ping failed", "error", err)
		}
		if idle := c.idle(); c.cfg.PingTimeout > 0 && idle > c.cfg.PingTimeout {
			c.logger.Warn("connection stale", "idle", idle, "timeout", c.cfg.PingTimeout)
			c.fail(ErrStaleConnection)
			return
		}
	}
}
