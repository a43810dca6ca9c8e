// Package engine runs the analytics event loop.
//
// A single goroutine consumes routed book updates and trades in arrival
// order and drives the book mirror, CVD accumulator, iceberg detector and
// snapshot collector. One sequenced path means the detector always inspects
// trades against book state as of the trade's effective time, and replaying
// the same event sequence yields identical outputs.
package engine
