package api

import (
	"context"
	"fmt"

	"github.com/rickgao/deribit-marks/internal/model"
)

// GetInstruments lists instruments for a currency and kind.
func (c *Client) GetInstruments(ctx context.Context, currency, kind string, expired bool) ([]model.Instrument, error) {
	var resp []APIInstrument
	params := InstrumentParams{Currency: currency, Kind: kind, Expired: expired}
	if err := c.call(ctx, MethodGetInstruments, currency, params, &resp); err != nil {
		return nil, fmt.Errorf("get instruments %s: %w", currency, err)
	}

	out := make([]model.Instrument, 0, len(resp))
	for _, a := range resp {
		out = append(out, ToInstrument(a))
	}
	return out, nil
}

// GetOrderBook fetches the order book of one instrument.
func (c *Client) GetOrderBook(ctx context.Context, name string) (model.OrderBook, error) {
	var resp APIOrderBook
	if err := c.call(ctx, MethodGetOrderBook, name, InstrumentNameParams{InstrumentName: name}, &resp); err != nil {
		return model.OrderBook{}, fmt.Errorf("get order book %s: %w", name, err)
	}
	return ToOrderBook(resp), nil
}

// GetTicker fetches the ticker of one instrument, including the exchange mark.
func (c *Client) GetTicker(ctx context.Context, name string) (model.Ticker, error) {
	var resp APITicker
	if err := c.call(ctx, MethodTicker, name, InstrumentNameParams{InstrumentName: name}, &resp); err != nil {
		return model.Ticker{}, fmt.Errorf("get ticker %s: %w", name, err)
	}
	return ToTicker(resp), nil
}
