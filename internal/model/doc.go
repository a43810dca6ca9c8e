// Package model defines shared data types used across the smart-money analyzer.
//
// Conventions:
//   - Prices, quantities and notionals: decimal.Decimal (exact arithmetic;
//     binary floats never touch a comparison path)
//   - Exchange timestamps: int64 milliseconds since Unix epoch (feed native)
//   - Local receive timestamps: int64 microseconds since Unix epoch
//   - IDs: string for symbols, uuid.UUID for detection event IDs
package model
