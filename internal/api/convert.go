package api

import (
	"math"

	"github.com/rickgao/deribit-marks/internal/model"
)

// ToInstrument converts an API instrument. A missing strike becomes NaN so
// the matcher skips it.
func ToInstrument(a APIInstrument) model.Instrument {
	strike := math.NaN()
	if a.Strike != nil {
		strike = *a.Strike
	}
	return model.Instrument{
		Name:         a.InstrumentName,
		Strike:       strike,
		OptionType:   model.OptionType(a.OptionType),
		ExpirationTS: a.ExpirationTimestamp,
	}
}

// ToOrderBook converts an API order book.
func ToOrderBook(a APIOrderBook) model.OrderBook {
	return model.OrderBook{
		BestBidPrice:    a.BestBidPrice,
		BestAskPrice:    a.BestAskPrice,
		LastPrice:       a.LastPrice,
		SettlementPrice: a.SettlementPrice,
		MinPrice:        a.MinPrice,
		MaxPrice:        a.MaxPrice,
	}
}

// ToTicker converts an API ticker. A missing underlying price becomes 0,
// which the pricer treats as unavailable.
func ToTicker(a APITicker) model.Ticker {
	t := model.Ticker{
		InterestRate: a.InterestRate,
		MarkIV:       a.MarkIV,
		MarkPrice:    a.MarkPrice,
		Timestamp:    a.Timestamp,
	}
	if a.UnderlyingPrice != nil {
		t.UnderlyingPrice = *a.UnderlyingPrice
	}
	return t
}

// ToSettlementPoints keeps settlements with a non-zero timestamp and price.
func ToSettlementPoints(settlements []APISettlement) []model.SettlementPoint {
	out := make([]model.SettlementPoint, 0, len(settlements))
	for _, s := range settlements {
		if s.Timestamp == 0 || s.MarkPrice == 0 {
			continue
		}
		out = append(out, model.SettlementPoint{Timestamp: s.Timestamp, Price: s.MarkPrice})
	}
	return out
}
