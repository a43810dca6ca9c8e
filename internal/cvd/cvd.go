// Package cvd accumulates segmented cumulative volume delta.
//
// Each trade is classified by notional size into whale/dolphin/minnow and its
// signed notional (buy positive, sell negative) is added to the segment's
// running total. Totals never reset during a session.
package cvd

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

// Config holds the segmentation thresholds.
type Config struct {
	WhaleThreshold  decimal.Decimal // notional strictly above => whale
	MinnowThreshold decimal.Decimal // notional strictly below => minnow
}

// DefaultConfig returns the standard $100k / $1k thresholds.
func DefaultConfig() Config {
	return Config{
		WhaleThreshold:  decimal.NewFromInt(100000),
		MinnowThreshold: decimal.NewFromInt(1000),
	}
}

// Accumulator maintains per-segment signed CVD totals.
// Safe for concurrent readers; mutations are serialized by the event loop.
type Accumulator struct {
	cfg Config

	mu     sync.RWMutex
	totals map[model.Segment]*model.SegmentTotal
}

// New creates an accumulator with every segment at its untouched initial state.
func New(cfg Config) *Accumulator {
	totals := make(map[model.Segment]*model.SegmentTotal, len(model.Segments))
	for _, s := range model.Segments {
		totals[s] = &model.SegmentTotal{}
	}
	return &Accumulator{cfg: cfg, totals: totals}
}

// Classify buckets a notional value.
// Boundary convention: exactly the whale threshold is NOT whale, exactly the
// minnow threshold is NOT minnow; both fall to dolphin.
func (a *Accumulator) Classify(notional decimal.Decimal) model.Segment {
	switch {
	case notional.GreaterThan(a.cfg.WhaleThreshold):
		return model.SegmentWhale
	case notional.LessThan(a.cfg.MinnowThreshold):
		return model.SegmentMinnow
	default:
		return model.SegmentDolphin
	}
}

// Ingest classifies a trade, applies its signed notional to the segment total
// and returns the segment with its post-update running total.
// Sell-initiated prints are demand-negative, buy-initiated demand-positive.
func (a *Accumulator) Ingest(trade model.TradeEvent) (model.Segment, decimal.Decimal) {
	notional := trade.Notional()
	segment := a.Classify(notional)

	delta := notional
	if trade.SellerInitiated {
		delta = notional.Neg()
	}

	a.mu.Lock()
	st := a.totals[segment]
	st.Total = st.Total.Add(delta)
	st.Touched = true
	total := st.Total
	a.mu.Unlock()

	return segment, total
}

// Totals returns a copy of the current per-segment state.
func (a *Accumulator) Totals() map[model.Segment]model.SegmentTotal {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[model.Segment]model.SegmentTotal, len(a.totals))
	for s, st := range a.totals {
		out[s] = *st
	}
	return out
}

// AllTouched reports whether every segment has seen at least one trade.
func (a *Accumulator) AllTouched() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, st := range a.totals {
		if !st.Touched {
			return false
		}
	}
	return true
}
