// Package connection implements the JSON-RPC transport to Deribit.
//
// Layers:
//   - Client: one WebSocket connection with a read loop and keepalive pings
//   - RPC: JSON-RPC 2.0 requests over a Client, with responses dispatched to
//     waiters by correlation id
//   - Pipeline: many requests in flight at once, drained together
//
// One RPC owns one connection. Environments (mainnet, testnet) each dial their
// own.
package connection
