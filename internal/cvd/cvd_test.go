package cvd

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func trade(price, qty string, sell bool) model.TradeEvent {
	return model.TradeEvent{
		Symbol:          "BTCUSDT",
		Price:           dec(price),
		Quantity:        dec(qty),
		SellerInitiated: sell,
	}
}

func TestClassify_Boundaries(t *testing.T) {
	a := New(DefaultConfig())

	tests := []struct {
		notional string
		want     model.Segment
	}{
		{"100000.01", model.SegmentWhale},
		{"100000.00", model.SegmentDolphin}, // exactly $100k is NOT whale
		{"1000.00", model.SegmentDolphin},   // exactly $1k is NOT minnow
		{"999.99", model.SegmentMinnow},
		{"0.01", model.SegmentMinnow},
		{"50000", model.SegmentDolphin},
		{"2500000", model.SegmentWhale},
	}

	for _, tt := range tests {
		if got := a.Classify(dec(tt.notional)); got != tt.want {
			t.Errorf("Classify(%s) = %q, want %q", tt.notional, got, tt.want)
		}
	}
}

func TestIngest_SignConvention(t *testing.T) {
	a := New(DefaultConfig())

	// Buy-initiated adds notional.
	seg, total := a.Ingest(trade("50000", "1", false))
	if seg != model.SegmentDolphin {
		t.Errorf("segment = %q, want dolphin", seg)
	}
	if !total.Equal(dec("50000")) {
		t.Errorf("running total = %s, want 50000", total)
	}

	// Sell-initiated subtracts notional from the running total.
	_, total = a.Ingest(trade("50000", "0.4", true))
	if !total.Equal(dec("30000")) {
		t.Errorf("running total = %s, want 30000", total)
	}

	totals := a.Totals()
	if !totals[model.SegmentDolphin].Total.Equal(dec("30000")) {
		t.Errorf("dolphin total = %s, want 30000", totals[model.SegmentDolphin].Total)
	}
	if !totals[model.SegmentDolphin].Touched {
		t.Error("dolphin Touched = false, want true")
	}
}

func TestIngest_Deterministic(t *testing.T) {
	trades := []model.TradeEvent{
		trade("50000", "3", false),  // whale buy
		trade("50000", "0.01", true), // minnow sell
		trade("50000", "0.5", true),  // dolphin sell
		trade("50000", "2.5", false), // whale buy
	}

	run := func() map[model.Segment]model.SegmentTotal {
		a := New(DefaultConfig())
		for _, tr := range trades {
			a.Ingest(tr)
		}
		return a.Totals()
	}

	first, second := run(), run()
	for _, s := range model.Segments {
		if !first[s].Total.Equal(second[s].Total) {
			t.Errorf("segment %q totals differ across identical runs: %s vs %s",
				s, first[s].Total, second[s].Total)
		}
	}

	if !first[model.SegmentWhale].Total.Equal(dec("275000")) {
		t.Errorf("whale total = %s, want 275000", first[model.SegmentWhale].Total)
	}
}

func TestIngest_ExactDecimalSum(t *testing.T) {
	a := New(DefaultConfig())

	// 0.1 + 0.2 at price 1 lands in minnow and must sum to exactly 0.3.
	a.Ingest(trade("1", "0.1", false))
	a.Ingest(trade("1", "0.2", false))

	got := a.Totals()[model.SegmentMinnow].Total
	if !got.Equal(dec("0.3")) {
		t.Errorf("minnow total = %s, want exactly 0.3", got)
	}
}

func TestAllTouched(t *testing.T) {
	a := New(DefaultConfig())

	if a.AllTouched() {
		t.Error("AllTouched() = true on fresh accumulator, want false")
	}

	a.Ingest(trade("50000", "3", false))   // whale
	a.Ingest(trade("50000", "0.5", true))  // dolphin
	if a.AllTouched() {
		t.Error("AllTouched() = true with minnow untouched, want false")
	}

	a.Ingest(trade("50000", "0.01", false)) // minnow
	if !a.AllTouched() {
		t.Error("AllTouched() = false with all segments touched, want true")
	}
}

func TestTouched_DistinguishesGenuineZero(t *testing.T) {
	a := New(DefaultConfig())

	// Buy and sell of identical notional: total is genuinely zero but touched.
	a.Ingest(trade("50000", "0.5", false))
	a.Ingest(trade("50000", "0.5", true))

	st := a.Totals()[model.SegmentDolphin]
	if !st.Total.IsZero() {
		t.Errorf("dolphin total = %s, want 0", st.Total)
	}
	if !st.Touched {
		t.Error("dolphin Touched = false after trading to a zero total, want true")
	}
}
