package model

import (
	"encoding/json"
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Instruments
// -----------------------------------------------------------------------------

// OptionType is the side of an option contract.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Instrument is an option listed on the exchange. Immutable once loaded.
type Instrument struct {
	Name         string     // e.g. "BTC-27JUN25-100000-C"
	Strike       float64    // NaN when the exchange did not report a usable strike
	OptionType   OptionType // "call" or "put"; anything else is carried through as-is
	ExpirationTS int64      // Expiry (ms since epoch)
}

// HasStrike reports whether the instrument carries a usable strike.
func (i Instrument) HasStrike() bool {
	return !math.IsNaN(i.Strike) && !math.IsInf(i.Strike, 0)
}

// -----------------------------------------------------------------------------
// Market Snapshots
// -----------------------------------------------------------------------------

// OrderBook holds the order book fields used for mark estimation.
type OrderBook struct {
	BestBidPrice    *float64
	BestAskPrice    *float64
	LastPrice       *float64
	SettlementPrice *float64
	MinPrice        *float64
	MaxPrice        *float64
}

// Ticker holds the ticker fields used by the Black-76 model.
type Ticker struct {
	UnderlyingPrice float64
	InterestRate    *float64 // Defaults to 0
	MarkIV          *float64 // Percent, defaults to 0
	MarkPrice       *float64 // Exchange-reported mark, for comparison
	Timestamp       int64    // Exchange timestamp (ms since epoch)
}

// -----------------------------------------------------------------------------
// Mark Evaluation Output
// -----------------------------------------------------------------------------

// MarkEntry is the evaluation result for one strike and one side.
// Fields are omitted from JSON the same way for every cycle, so files from
// successive cycles can be diffed.
type MarkEntry struct {
	ComputedMark      *float64 `json:"computed_mark"`
	IsStandard        *bool    `json:"is_standard,omitempty"`
	Instrument        string   `json:"instrument,omitempty"`
	ClosestInstrument *string  `json:"closest_instrument,omitempty"`
	DeribitMark       *float64 `json:"deribit_mark,omitempty"`
	Error             string   `json:"error,omitempty"`
	Testnet           bool     `json:"testnet"`

	// Unmatched marks an entry with no instrument of its side at all. It is
	// written with an explicit "closest_instrument": null.
	Unmatched bool `json:"-"`
}

// MarshalJSON implements json.Marshaler.
func (e MarkEntry) MarshalJSON() ([]byte, error) {
	type entry MarkEntry
	if !e.Unmatched {
		return json.Marshal(entry(e))
	}
	return json.Marshal(struct {
		entry
		ClosestInstrument *string `json:"closest_instrument"`
	}{entry: entry(e)})
}

// StrikeMarks maps an option side to its entry.
type StrikeMarks map[OptionType]MarkEntry

// MarkSnapshot is the output of one evaluation cycle.
type MarkSnapshot struct {
	Timestamp int64                  // Cycle time (unix seconds)
	Testnet   bool                   // Environment the marks came from
	Marks     map[string]StrikeMarks // Keyed by formatted strike
}

// -----------------------------------------------------------------------------
// Settlement Reconciliation
// -----------------------------------------------------------------------------

// SettlementPoint is one settlement observation for an asset.
type SettlementPoint struct {
	Timestamp int64   // ms since epoch
	Price     float64 // Settlement mark price
}

// SettlementRecord is a settlement observation tagged with its asset.
type SettlementRecord struct {
	Asset string
	SettlementPoint
}

// DailyClose is a historical closing price from a third-party provider.
type DailyClose struct {
	Date  string // YYYY-MM-DD (UTC)
	Close float64
}

// BestMatch is the timestamp where the basket valuations agree best.
type BestMatch struct {
	Timestamp int64               `json:"timestamp"`
	Date      string              `json:"date"` // RFC 3339, UTC
	PriceUSD  float64             `json:"price_usd"`
	Metric    string              `json:"metric"`
	Score     float64             `json:"score"`
	Prices    map[string]*float64 `json:"prices"` // Per-asset valuation, nil where missing
	Label     string              `json:"label"`
}

// DateOf returns the UTC calendar date (YYYY-MM-DD) of a millisecond timestamp.
func DateOf(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.DateOnly)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// String returns a pointer to v.
func String(v string) *string {
	return &v
}
