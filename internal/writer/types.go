package writer

import (
	"time"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
	}
}

// icebergRow represents a row for the iceberg_events table.
type icebergRow struct {
	EventID       string // UUID
	Symbol        string
	Side          string // "bid" or "ask"
	Price         string // NUMERIC
	TradedVolume  string // NUMERIC
	VisibleVolume string // NUMERIC
	HiddenVolume  string // NUMERIC
	HiddenRatio   float64
	Confidence    float64
	OnGammaWall   bool
	EventTS       int64 // Milliseconds
	ReceivedAt    int64 // Microseconds
}

// snapshotRow represents a row for the feature_snapshots table.
type snapshotRow struct {
	Symbol     string
	SnapshotTS int64  // Milliseconds
	Source     string // "event" or "clock"
	MidPrice   string // NUMERIC
	Spread     string // NUMERIC
	WhaleCVD   string // NUMERIC
	DolphinCVD string // NUMERIC
	MinnowCVD  string // NUMERIC
	AvgPrice   float64
	Volatility float64
	WindowSize int
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
