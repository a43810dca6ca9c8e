// Package connection manages the exchange WebSocket feed.
//
// Client is a single connection with keepalive and stale detection.
// Supervisor owns the reconnect policy and forwards raw frames from the
// current connection to one output channel, so downstream consumers see a
// single uninterrupted stream.
package connection
