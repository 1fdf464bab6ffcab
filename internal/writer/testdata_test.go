package writer

import (
	"github.com/rickgao/deribit-marks/internal/model"
)

func testSnapshot() model.MarkSnapshot {
	closest := "BTC-27JUN25-65000-P"
	return model.MarkSnapshot{
		Timestamp: 1718000000,
		Testnet:   true,
		Marks: map[string]model.StrikeMarks{
			"65000": {
				model.Call: {
					ComputedMark: model.Float(0.0521),
					IsStandard:   model.Bool(true),
					Instrument:   "BTC-27JUN25-65000-C",
					DeribitMark:  model.Float(0.052),
					Testnet:      true,
				},
				model.Put: {
					ComputedMark:      model.Float(0.031),
					IsStandard:        model.Bool(false),
					ClosestInstrument: &closest,
					Testnet:           true,
				},
			},
			"64000.5": {
				model.Call: {
					Error:     "No matching Deribit instrument",
					Testnet:   true,
					Unmatched: true,
				},
				model.Put: {
					IsStandard: model.Bool(true),
					Instrument: "BTC-27JUN25-64000.5-P",
					Error:      "No usable order book data",
					Testnet:    true,
				},
			},
		},
	}
}

func testBestMatch() model.BestMatch {
	return model.BestMatch{
		Timestamp: 1717228800000,
		Date:      "2024-06-01T08:00:00Z",
		PriceUSD:  123.456789,
		Metric:    "std",
		Score:     1.25,
		Prices:    map[string]*float64{"BTC": model.Float(120), "ADA": nil},
		Label:     "mainnet",
	}
}
