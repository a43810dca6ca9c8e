// Package writer implements batch writers for derived analytics.
//
// Writers:
//   - Iceberg event writer (TimescaleDB)
//   - Feature snapshot writer (TimescaleDB)
//
// All writers use append-only semantics (never update, only insert).
// Prices and quantities are stored as NUMERIC; rows carry them as the
// decimal's canonical string form so no float conversion ever happens
// on the write path.
package writer
