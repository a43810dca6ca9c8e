// Package router parses raw feed frames into typed market-data events and
// hands them to the engine through a growable buffer.
//
// Book updates and trades share one buffer so the engine sees them in wire
// arrival order: a trade must be analyzed against the book state that
// preceded it. Parse failures are counted, never fatal: the feed is allowed
// to be noisy, the analytics path is not.
package router
