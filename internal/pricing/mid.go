package pricing

import "github.com/rickgao/deribit-marks/internal/model"

// midRule returns a price and true when it applies to the book.
type midRule func(model.OrderBook) (float64, bool)

// midRules is evaluated in order; the first applicable rule wins.
var midRules = []midRule{
	bidAskMid,
	oneSided,
	lastTraded,
	settlement,
	minMaxMid,
}

// EstimateMid estimates a mark from an order book snapshot.
//
// Priority:
//  1. mean of best bid and best ask, both > 0
//  2. best bid > 0, then best ask > 0
//  3. last traded price, whatever its value
//  4. settlement price
//  5. mean of min and max price, both > 0
//
// Returns false when no rule applies.
func EstimateMid(book model.OrderBook) (float64, bool) {
	for _, rule := range midRules {
		if price, ok := rule(book); ok {
			return price, true
		}
	}
	return 0, false
}

func bidAskMid(b model.OrderBook) (float64, bool) {
	if positive(b.BestBidPrice) && positive(b.BestAskPrice) {
		return (*b.BestBidPrice + *b.BestAskPrice) / 2, true
	}
	return 0, false
}

func oneSided(b model.OrderBook) (float64, bool) {
	if positive(b.BestBidPrice) {
		return *b.BestBidPrice, true
	}
	if positive(b.BestAskPrice) {
		return *b.BestAskPrice, true
	}
	return 0, false
}

// lastTraded accepts zero and negative prices; only absence is rejected.
func lastTraded(b model.OrderBook) (float64, bool) {
	if b.LastPrice != nil {
		return *b.LastPrice, true
	}
	return 0, false
}

func settlement(b model.OrderBook) (float64, bool) {
	if b.SettlementPrice != nil {
		return *b.SettlementPrice, true
	}
	return 0, false
}

func minMaxMid(b model.OrderBook) (float64, bool) {
	if positive(b.MinPrice) && positive(b.MaxPrice) {
		return (*b.MinPrice + *b.MaxPrice) / 2, true
	}
	return 0, false
}

// positive is false for nil and NaN.
func positive(v *float64) bool {
	return v != nil && *v > 0
}
