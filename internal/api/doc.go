// Package api provides typed access to the Deribit public JSON-RPC methods
// used for mark estimation and settlement history.
//
// Methods:
//   - public/get_instruments
//   - public/get_order_book
//   - public/ticker
//   - public/get_last_settlements_by_instrument
//
// Calls go through a Caller, normally a *connection.RPC. Settlement requests
// are queued on a connection.Pipeline so a whole basket can be fetched
// without waiting on each response.
package api
