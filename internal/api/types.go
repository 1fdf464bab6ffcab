package api

// InstrumentParams are the parameters of public/get_instruments.
type InstrumentParams struct {
	Currency string `json:"currency"`
	Kind     string `json:"kind,omitempty"`
	Expired  bool   `json:"expired"`
}

// InstrumentNameParams names a single instrument.
type InstrumentNameParams struct {
	InstrumentName string `json:"instrument_name"`
}

// SettlementParams are the parameters of public/get_last_settlements_by_instrument.
type SettlementParams struct {
	InstrumentName       string `json:"instrument_name"`
	Type                 string `json:"type"`
	Count                int    `json:"count"`
	SearchStartTimestamp int64  `json:"search_start_timestamp"`
}

// APIInstrument is an entry of the get_instruments result.
type APIInstrument struct {
	InstrumentName      string   `json:"instrument_name"`
	Kind                string   `json:"kind"`
	BaseCurrency        string   `json:"base_currency"`
	Strike              *float64 `json:"strike"`
	OptionType          string   `json:"option_type"`
	ExpirationTimestamp int64    `json:"expiration_timestamp"`
	IsActive            bool     `json:"is_active"`
}

// APIOrderBook is the subset of the get_order_book result used for pricing.
type APIOrderBook struct {
	InstrumentName  string   `json:"instrument_name"`
	BestBidPrice    *float64 `json:"best_bid_price"`
	BestAskPrice    *float64 `json:"best_ask_price"`
	LastPrice       *float64 `json:"last_price"`
	SettlementPrice *float64 `json:"settlement_price"`
	MinPrice        *float64 `json:"min_price"`
	MaxPrice        *float64 `json:"max_price"`
	MarkPrice       *float64 `json:"mark_price"`
	Timestamp       int64    `json:"timestamp"`
}

// APITicker is the subset of the ticker result used for pricing.
type APITicker struct {
	InstrumentName  string   `json:"instrument_name"`
	UnderlyingPrice *float64 `json:"underlying_price"`
	InterestRate    *float64 `json:"interest_rate"`
	MarkIV          *float64 `json:"mark_iv"`
	MarkPrice       *float64 `json:"mark_price"`
	Timestamp       int64    `json:"timestamp"`
}

// SettlementsResult is the get_last_settlements_by_instrument result.
type SettlementsResult struct {
	Settlements  []APISettlement `json:"settlements"`
	Continuation string          `json:"continuation"`
}

// APISettlement is one settlement event.
type APISettlement struct {
	Type       string  `json:"type"`
	Timestamp  int64   `json:"timestamp"`
	MarkPrice  float64 `json:"mark_price"`
	IndexPrice float64 `json:"index_price"`
}
