// Package poller implements periodic mark evaluation.
//
// Each cycle, for every configured strike and side:
//   - matches the closest listed instrument
//   - fetches its order book (and ticker for Black-76 or standard strikes)
//   - estimates a mark and rounds it to 4 decimals
//
// Failures are isolated per entry; a cycle always produces a snapshot.
// Strikes are evaluated sequentially over a single connection.
package poller
