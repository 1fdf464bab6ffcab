package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/rickgao/deribit-marks/internal/connection"
	"github.com/rickgao/deribit-marks/internal/model"
)

// fakeCaller answers calls from canned JSON results keyed by method.
type fakeCaller struct {
	results map[string]string
	err     error
	calls   []fakeCall
}

type fakeCall struct {
	method string
	params any
}

func (f *fakeCaller) Call(ctx context.Context, method string, params, result any) error {
	f.calls = append(f.calls, fakeCall{method: method, params: params})
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.results[method]), result)
}

func TestGetInstruments(t *testing.T) {
	caller := &fakeCaller{results: map[string]string{
		MethodGetInstruments: `[
			{"instrument_name":"BTC-27JUN25-100000-C","strike":100000,"option_type":"call","expiration_timestamp":1751011200000},
			{"instrument_name":"BTC-27JUN25-100000-P","strike":100000,"option_type":"put","expiration_timestamp":1751011200000},
			{"instrument_name":"BTC-27JUN25","strike":null,"expiration_timestamp":1751011200000}
		]`,
	}}
	c := NewClient(caller, nil)

	got, err := c.GetInstruments(context.Background(), "BTC", "option", false)
	if err != nil {
		t.Fatalf("GetInstruments failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "BTC-27JUN25-100000-C" || got[0].Strike != 100000 || got[0].OptionType != model.Call {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].OptionType != model.Put {
		t.Errorf("got[1].OptionType = %q, want put", got[1].OptionType)
	}
	if !math.IsNaN(got[2].Strike) {
		t.Errorf("got[2].Strike = %v, want NaN", got[2].Strike)
	}

	params, ok := caller.calls[0].params.(InstrumentParams)
	if !ok {
		t.Fatalf("params type = %T, want InstrumentParams", caller.calls[0].params)
	}
	if params.Currency != "BTC" || params.Kind != "option" || params.Expired {
		t.Errorf("params = %+v", params)
	}
}

func TestGetInstruments_Error(t *testing.T) {
	rpcErr := &connection.RPCError{Code: 10000, Message: "bad currency"}
	c := NewClient(&fakeCaller{err: rpcErr}, nil)

	_, err := c.GetInstruments(context.Background(), "XYZ", "option", false)
	var got *connection.RPCError
	if !errors.As(err, &got) {
		t.Fatalf("err = %v, want *RPCError", err)
	}
}

func TestGetOrderBook(t *testing.T) {
	caller := &fakeCaller{results: map[string]string{
		MethodGetOrderBook: `{"instrument_name":"BTC-27JUN25-100000-C","best_bid_price":0.05,"best_ask_price":0.0525,"last_price":null,"settlement_price":0.051,"min_price":0.001,"max_price":0.2}`,
	}}
	c := NewClient(caller, nil)

	book, err := c.GetOrderBook(context.Background(), "BTC-27JUN25-100000-C")
	if err != nil {
		t.Fatalf("GetOrderBook failed: %v", err)
	}
	if book.BestBidPrice == nil || *book.BestBidPrice != 0.05 {
		t.Errorf("BestBidPrice = %v, want 0.05", book.BestBidPrice)
	}
	if book.BestAskPrice == nil || *book.BestAskPrice != 0.0525 {
		t.Errorf("BestAskPrice = %v, want 0.0525", book.BestAskPrice)
	}
	if book.LastPrice != nil {
		t.Errorf("LastPrice = %v, want nil", *book.LastPrice)
	}
	if book.SettlementPrice == nil || book.MinPrice == nil || book.MaxPrice == nil {
		t.Error("settlement/min/max should be set")
	}

	params := caller.calls[0].params.(InstrumentNameParams)
	if params.InstrumentName != "BTC-27JUN25-100000-C" {
		t.Errorf("instrument_name = %q", params.InstrumentName)
	}
}

func TestGetTicker(t *testing.T) {
	tests := []struct {
		name           string
		result         string
		wantUnderlying float64
		wantIV         bool
	}{
		{
			name:           "full ticker",
			result:         `{"underlying_price":64000.5,"interest_rate":0,"mark_iv":55.2,"mark_price":0.0512,"timestamp":1700000000000}`,
			wantUnderlying: 64000.5,
			wantIV:         true,
		},
		{
			name:           "missing underlying",
			result:         `{"mark_price":0.0512,"timestamp":1700000000000}`,
			wantUnderlying: 0,
			wantIV:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(&fakeCaller{results: map[string]string{MethodTicker: tt.result}}, nil)
			tk, err := c.GetTicker(context.Background(), "BTC-27JUN25-100000-C")
			if err != nil {
				t.Fatalf("GetTicker failed: %v", err)
			}
			if tk.UnderlyingPrice != tt.wantUnderlying {
				t.Errorf("UnderlyingPrice = %v, want %v", tk.UnderlyingPrice, tt.wantUnderlying)
			}
			if (tk.MarkIV != nil) != tt.wantIV {
				t.Errorf("MarkIV set = %v, want %v", tk.MarkIV != nil, tt.wantIV)
			}
			if tk.MarkPrice == nil || *tk.MarkPrice != 0.0512 {
				t.Errorf("MarkPrice = %v, want 0.0512", tk.MarkPrice)
			}
			if tk.Timestamp != 1700000000000 {
				t.Errorf("Timestamp = %d, want 1700000000000", tk.Timestamp)
			}
		})
	}
}

func TestGetTicker_ErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	caller := &fakeCaller{err: &connection.RPCError{Code: 10028, Message: "too_many_requests"}}
	c := NewClient(caller, logger)

	if _, err := c.GetTicker(context.Background(), "BTC-27JUN25-65000-C"); err == nil {
		t.Fatal("GetTicker succeeded, want error")
	}

	out := buf.String()
	for _, want := range []string{"rpc call failed", "method=public/ticker", "subject=BTC-27JUN25-65000-C", "too_many_requests"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
