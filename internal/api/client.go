package api

import (
	"context"
	"log/slog"
	"time"
)

// Method names.
const (
	MethodGetInstruments  = "public/get_instruments"
	MethodGetOrderBook    = "public/get_order_book"
	MethodTicker          = "public/ticker"
	MethodLastSettlements = "public/get_last_settlements_by_instrument"
)

// Caller issues one JSON-RPC request and decodes its result.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// Client provides access to the Deribit public API.
type Client struct {
	caller Caller
	logger *slog.Logger
}

// NewClient creates a new API client over caller.
func NewClient(caller Caller, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{caller: caller, logger: logger}
}

// call issues one request and logs failures at debug level. subject names what
// the request is about (currency or instrument).
func (c *Client) call(ctx context.Context, method, subject string, params, result any) error {
	start := time.Now()
	err := c.caller.Call(ctx, method, params, result)
	if err != nil {
		c.logger.Debug("rpc call failed",
			"method", method,
			"subject", subject,
			"duration", time.Since(start),
			"error", err,
		)
	}
	return err
}
