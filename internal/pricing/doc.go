// Package pricing estimates option mark prices.
//
// Two estimators are provided:
//   - EstimateMid: an ordered fallback chain over order book fields
//   - Black76: the analytical model for options on forwards, normalized to spot
//
// Both report availability with a bool instead of an error; an unavailable
// price is an expected outcome, not a failure.
package pricing
