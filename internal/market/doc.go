// Package market holds the option instrument catalog for one expiry and
// matches target strikes to listed instruments.
//
// The catalog is loaded once at startup; instruments are immutable afterwards,
// so lookups and matches need no locking.
package market
