// Package database provides connection pool management for TimescaleDB.
//
// The analyzer persists two time-series streams:
//   - feature_snapshots: periodic warm feature vectors
//   - iceberg_events: hidden-liquidity detections
package database
