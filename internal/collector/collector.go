// Package collector assembles periodic feature snapshots behind a warm-up gate.
//
// The collector owns a bounded price history and a one-way COLD→WARM state
// machine. No snapshot is ever emitted cold, so downstream datasets never see
// vectors built from placeholder values. Snapshot timestamps are derived from
// the driving event's exchange time, never from local processing latency.
package collector

import (
	"sync"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

// BookSource provides current book-derived values for snapshot assembly.
type BookSource interface {
	MidPrice() (decimal.Decimal, bool)
	Spread() (decimal.Decimal, bool)
}

// CvdSource provides current CVD totals for snapshot assembly.
type CvdSource interface {
	Totals() map[model.Segment]model.SegmentTotal
	AllTouched() bool
}

// Config holds collector parameters.
type Config struct {
	Symbol       string
	WarmupWindow int // price samples required before the gate opens (default 60)
}

// DefaultConfig returns the standard 60-sample warm-up window.
func DefaultConfig(symbol string) Config {
	return Config{Symbol: symbol, WarmupWindow: 60}
}

// Collector is the warm-up-gated snapshot assembler.
// Safe for concurrent use; mutations are serialized by the event loop.
type Collector struct {
	cfg  Config
	book BookSource
	cvd  CvdSource

	mu       sync.Mutex
	history  *priceRing
	warmedUp bool

	now func() time.Time // injectable for timestamp determinism tests
}

// New creates a cold collector reading from the given sources.
func New(cfg Config, book BookSource, cvd CvdSource) *Collector {
	if cfg.WarmupWindow < 1 {
		cfg.WarmupWindow = 1
	}
	return &Collector{
		cfg:     cfg,
		book:    book,
		cvd:     cvd,
		history: newPriceRing(cfg.WarmupWindow),
		now:     time.Now,
	}
}

// UpdatePrice appends a price sample, evicting the oldest once the window is full.
func (c *Collector) UpdatePrice(p decimal.Decimal) {
	c.mu.Lock()
	c.history.push(p)
	c.mu.Unlock()
}

// IsReady reports whether the warm-up conditions hold: every CVD segment has
// been touched and the price history has filled the window.
func (c *Collector) IsReady() bool {
	c.mu.Lock()
	n := c.history.len()
	c.mu.Unlock()

	return n >= c.cfg.WarmupWindow && c.cvd.AllTouched()
}

// CheckWarmup transitions COLD→WARM when ready. Idempotent; the transition is
// one-way and a warm collector never goes cold again.
func (c *Collector) CheckWarmup() {
	if c.IsWarmedUp() {
		return
	}
	if c.IsReady() {
		c.mu.Lock()
		c.warmedUp = true
		c.mu.Unlock()
	}
}

// IsWarmedUp reports the gate state.
func (c *Collector) IsWarmedUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warmedUp
}

// CaptureSnapshot assembles a feature snapshot.
//
// Returns ok=false while the collector is cold. eventTS is the driving
// event's exchange time in ms; pass 0 for non-exchange-driven callers, which
// falls back to wall-clock time and marks the snapshot accordingly. Two calls
// with the same eventTS produce identical snapshot timestamps regardless of
// elapsed processing time.
func (c *Collector) CaptureSnapshot(eventTS int64) (model.FeatureSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.warmedUp {
		return model.FeatureSnapshot{}, false
	}

	mid, ok := c.book.MidPrice()
	if !ok {
		return model.FeatureSnapshot{}, false
	}
	spread, _ := c.book.Spread()

	snapshotTS := eventTS
	source := model.SnapshotSourceEvent
	if snapshotTS <= 0 {
		snapshotTS = c.now().UnixMilli()
		source = model.SnapshotSourceClock
	}

	totals := c.cvd.Totals()
	cvdOut := make(map[model.Segment]decimal.Decimal, len(totals))
	for s, st := range totals {
		cvdOut[s] = st.Total
	}

	window := c.history.values()
	avg, vol := windowStats(window)

	return model.FeatureSnapshot{
		Symbol:     c.cfg.Symbol,
		SnapshotTS: snapshotTS,
		Source:     source,
		MidPrice:   mid,
		Spread:     spread,
		CVD:        cvdOut,
		AvgPrice:   avg,
		Volatility: vol,
		WindowSize: len(window),
	}, true
}

// windowStats computes mean and stddev over the window. Derived statistics
// are float outputs; no comparison is performed on them.
func windowStats(window []float64) (avg, vol float64) {
	n := len(window)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return window[0], 0
	}

	sma := talib.Sma(window, n)
	std := talib.StdDev(window, n, 1.0)
	return sma[n-1], std[n-1]
}

// priceRing is a fixed-capacity ring of price samples, oldest evicted first.
type priceRing struct {
	buf   []decimal.Decimal
	next  int
	count int
}

func newPriceRing(capacity int) *priceRing {
	return &priceRing{buf: make([]decimal.Decimal, capacity)}
}

func (r *priceRing) push(p decimal.Decimal) {
	r.buf[r.next] = p
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

func (r *priceRing) len() int {
	return r.count
}

// values returns the window oldest→newest as floats for stats computation.
func (r *priceRing) values() []float64 {
	out := make([]float64, 0, r.count)
	start := r.next - r.count
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.count; i++ {
		v, _ := r.buf[(start+i)%len(r.buf)].Float64()
		out = append(out, v)
	}
	return out
}
