package market

import (
	"math"

	"github.com/rickgao/deribit-marks/internal/model"
)

// Match returns the names of the call and put instruments whose strikes are
// closest to strike. Sides are matched independently. On equal distance the
// instrument seen first wins. An empty name means no instrument of that side
// has a usable strike.
func Match(instruments []model.Instrument, strike float64) (call, put string) {
	minCall := math.Inf(1)
	minPut := math.Inf(1)

	for _, inst := range instruments {
		if !inst.HasStrike() {
			continue
		}
		diff := math.Abs(inst.Strike - strike)

		switch inst.OptionType {
		case model.Call:
			if diff < minCall {
				minCall = diff
				call = inst.Name
			}
		case model.Put:
			if diff < minPut {
				minPut = diff
				put = inst.Name
			}
		}
	}

	return call, put
}

// IsStandard reports whether inst is listed at exactly the requested strike.
func IsStandard(inst model.Instrument, strike float64) bool {
	return inst.HasStrike() && inst.Strike == strike
}
