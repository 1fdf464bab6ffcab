// Package history fetches daily closing prices from the Yahoo Finance chart
// API. They fill gaps in exchange settlement history.
//
// Endpoint:
//   - https://query1.finance.yahoo.com/v8/finance/chart/{symbol}?period1=..&period2=..&interval=1d
package history
