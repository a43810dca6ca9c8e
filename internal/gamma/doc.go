// Package gamma tracks options-derived gamma-wall levels and adjusts
// detection confidence for events printing on a wall.
//
// The profile itself is computed by an external options engine; this package
// only holds the latest copy (atomically swappable), measures wall proximity
// and periodically refreshes the profile from the engine's endpoint.
package gamma
