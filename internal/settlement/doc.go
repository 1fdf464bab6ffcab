// Package settlement estimates the historical USD price of the basket from
// exchange settlement history.
//
// A run:
//   - collects settlement prices for every basket asset from testnet and
//     mainnet concurrently, one pipelined connection per environment
//   - merges each environment into a price table and fills gaps in the
//     gap-fill asset from testnet data and third-party daily closes
//   - reconciles each table and keeps the better of the two matches
package settlement
