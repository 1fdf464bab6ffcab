package pricing

import (
	"math"

	"github.com/rickgao/deribit-marks/internal/model"
)

const (
	// msPerYear is a 365-day year in milliseconds.
	msPerYear = 365 * 24 * 3600 * 1000

	// minExpiry floors time-to-expiry (years) so expiring options still price.
	minExpiry = 1e-8
)

// Black76 prices an option with the Black-76 model and returns the price as a
// fraction of the underlying spot.
//
// Spot comes from the ticker's underlying price, volatility from mark_iv
// (percent) and the rate from interest_rate; both default to zero when absent.
// Returns false when the inputs are outside the model's domain or the option
// type is neither call nor put.
func Black76(ticker model.Ticker, inst model.Instrument) (float64, bool) {
	S := ticker.UnderlyingPrice
	K := inst.Strike

	r := 0.0
	if ticker.InterestRate != nil {
		r = *ticker.InterestRate
	}
	sigma := 0.0
	if ticker.MarkIV != nil {
		sigma = *ticker.MarkIV / 100
	}

	T := math.Max(float64(inst.ExpirationTS-ticker.Timestamp)/msPerYear, minExpiry)

	// Written as !(x > 0) so NaN inputs are rejected too.
	if !(S > 0) || !(K > 0) || !(sigma > 0) || !(T > 0) {
		return 0, false
	}

	F := S * math.Exp(r*T)
	sqrtT := math.Sqrt(T)

	d1 := (math.Log(F/K) + 0.5*sigma*sigma*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	discount := math.Exp(-r * T)

	var price float64
	switch inst.OptionType {
	case model.Call:
		price = discount * (F*NormCDF(d1) - K*NormCDF(d2))
	case model.Put:
		price = discount * (K*NormCDF(-d2) - F*NormCDF(-d1))
	default:
		return 0, false
	}

	mark := price / S
	if math.IsNaN(mark) || math.IsInf(mark, 0) {
		return 0, false
	}
	return mark, true
}

// NormCDF is the standard normal cumulative distribution function.
func NormCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
