package writer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/model"
	"github.com/annamatynian/smartmoney-data/internal/router"
)

func TestSnapshotWriter_Transform(t *testing.T) {
	cfg := DefaultWriterConfig()
	input := router.NewGrowableBuffer[model.FeatureSnapshot](10)
	w := NewSnapshotWriter(cfg, input, nil, nil)

	snap := model.FeatureSnapshot{
		Symbol:     "BTCUSDT",
		SnapshotTS: 1700000001000,
		Source:     model.SnapshotSourceEvent,
		MidPrice:   decimal.RequireFromString("50000.15"),
		Spread:     decimal.RequireFromString("0.10"),
		CVD: map[model.Segment]decimal.Decimal{
			model.SegmentWhale:   decimal.RequireFromString("-12.5"),
			model.SegmentDolphin: decimal.RequireFromString("3.25"),
			model.SegmentMinnow:  decimal.RequireFromString("0.4"),
		},
		AvgPrice:   50000.12,
		Volatility: 4.2,
		WindowSize: 60,
	}

	row := w.transform(snap)

	if row.Symbol != "BTCUSDT" {
		t.Errorf("Symbol = %s, want BTCUSDT", row.Symbol)
	}
	if row.SnapshotTS != 1700000001000 {
		t.Errorf("SnapshotTS = %d, want 1700000001000", row.SnapshotTS)
	}
	if row.Source != "event" {
		t.Errorf("Source = %s, want event", row.Source)
	}
	if row.MidPrice != "50000.15" {
		t.Errorf("MidPrice = %s, want 50000.15", row.MidPrice)
	}
	// decimal String() drops trailing zeros: "0.10" renders as "0.1".
	if row.Spread != "0.1" {
		t.Errorf("Spread = %s, want 0.1", row.Spread)
	}
	if row.WhaleCVD != "-12.5" {
		t.Errorf("WhaleCVD = %s, want -12.5", row.WhaleCVD)
	}
	if row.DolphinCVD != "3.25" {
		t.Errorf("DolphinCVD = %s, want 3.25", row.DolphinCVD)
	}
	if row.MinnowCVD != "0.4" {
		t.Errorf("MinnowCVD = %s, want 0.4", row.MinnowCVD)
	}
	if row.AvgPrice != 50000.12 {
		t.Errorf("AvgPrice = %v, want 50000.12", row.AvgPrice)
	}
	if row.Volatility != 4.2 {
		t.Errorf("Volatility = %v, want 4.2", row.Volatility)
	}
	if row.WindowSize != 60 {
		t.Errorf("WindowSize = %d, want 60", row.WindowSize)
	}
}

func TestSnapshotWriter_Transform_MissingSegment(t *testing.T) {
	cfg := DefaultWriterConfig()
	input := router.NewGrowableBuffer[model.FeatureSnapshot](10)
	w := NewSnapshotWriter(cfg, input, nil, nil)

	snap := model.FeatureSnapshot{
		Symbol: "BTCUSDT",
		CVD: map[model.Segment]decimal.Decimal{
			model.SegmentWhale: decimal.RequireFromString("5"),
		},
	}

	row := w.transform(snap)

	if row.WhaleCVD != "5" {
		t.Errorf("WhaleCVD = %s, want 5", row.WhaleCVD)
	}
	if row.DolphinCVD != "0" {
		t.Errorf("DolphinCVD = %s, want 0 for absent segment", row.DolphinCVD)
	}
	if row.MinnowCVD != "0" {
		t.Errorf("MinnowCVD = %s, want 0 for absent segment", row.MinnowCVD)
	}
}

func TestSnapshotWriter_Lifecycle(t *testing.T) {
	cfg := WriterConfig{
		BatchSize:     10,
		FlushInterval: 100 * time.Millisecond,
	}
	input := router.NewGrowableBuffer[model.FeatureSnapshot](10)

	// No database: this tests the goroutine lifecycle only.
	w := NewSnapshotWriter(cfg, input, nil, nil)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestSnapshotWriter_HandleSnapshot_AddsToBatch(t *testing.T) {
	cfg := WriterConfig{
		BatchSize:     100, // Large batch so no auto-flush
		FlushInterval: time.Hour,
	}
	input := router.NewGrowableBuffer[model.FeatureSnapshot](10)
	w := NewSnapshotWriter(cfg, input, nil, nil)

	w.handleSnapshot(model.FeatureSnapshot{Symbol: "BTCUSDT"})

	w.batchMu.Lock()
	batchLen := len(w.batch)
	w.batchMu.Unlock()

	if batchLen != 1 {
		t.Errorf("batch length = %d, want 1", batchLen)
	}
}
