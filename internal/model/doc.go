// Package model defines shared data types used across deribit-marks.
//
// Conventions:
//   - Timestamps: int64 milliseconds since Unix epoch (Deribit's unit)
//   - Prices: float64 in the instrument's quote unit; option marks are
//     fractions of the underlying spot
//   - Optional exchange fields are pointers; nil means the field was absent
//     or null in the response
package model
