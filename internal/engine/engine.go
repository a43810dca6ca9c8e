package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/annamatynian/smartmoney-data/internal/book"
	"github.com/annamatynian/smartmoney-data/internal/collector"
	"github.com/annamatynian/smartmoney-data/internal/cvd"
	"github.com/annamatynian/smartmoney-data/internal/gamma"
	"github.com/annamatynian/smartmoney-data/internal/iceberg"
	"github.com/annamatynian/smartmoney-data/internal/model"
	"github.com/annamatynian/smartmoney-data/internal/router"
)

// SnapshotSink receives each emitted snapshot, typically a Redis cache.
// Sink failures are logged, never propagated: the persistence path through
// the snapshot buffer is the source of truth.
type SnapshotSink interface {
	SetSnapshot(ctx context.Context, snap model.FeatureSnapshot) error
}

// Config holds engine parameters.
type Config struct {
	Symbol           string
	SnapshotInterval time.Duration // exchange-time cadence between snapshots
	OutputBufferSize int           // initial capacity of the output buffers
}

// DefaultConfig returns one snapshot per second of exchange time.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:           symbol,
		SnapshotInterval: time.Second,
		OutputBufferSize: 1000,
	}
}

// Stats contains engine counters.
type Stats struct {
	BookUpdates   int64
	Trades        int64
	SequenceGaps  int64
	CrossedBooks  int64
	IcebergEvents int64
	Snapshots     int64
	WarmedUp      bool
}

// Engine is the single-writer analytics loop.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	inputs router.Buffers

	book      *book.PriceLevelBook
	cvd       *cvd.Accumulator
	detector  *iceberg.Detector
	tracker   *gamma.Tracker
	adjuster  *gamma.Adjuster
	collector *collector.Collector

	icebergOut  *router.GrowableBuffer[model.IcebergEvent]
	snapshotOut *router.GrowableBuffer[model.FeatureSnapshot]
	sink        SnapshotSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.RWMutex
	stats          Stats
	lastSnapshotTS int64 // exchange ms of the last emitted snapshot
	lastEmitWall   time.Time
}

// New creates an engine wiring the analytics components to the router buffers.
// sink may be nil.
func New(
	cfg Config,
	inputs router.Buffers,
	b *book.PriceLevelBook,
	acc *cvd.Accumulator,
	det *iceberg.Detector,
	tracker *gamma.Tracker,
	adjuster *gamma.Adjuster,
	col *collector.Collector,
	sink SnapshotSink,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:         cfg,
		logger:      logger,
		inputs:      inputs,
		book:        b,
		cvd:         acc,
		detector:    det,
		tracker:     tracker,
		adjuster:    adjuster,
		collector:   col,
		icebergOut:  router.NewGrowableBuffer[model.IcebergEvent](cfg.OutputBufferSize),
		snapshotOut: router.NewGrowableBuffer[model.FeatureSnapshot](cfg.OutputBufferSize),
		sink:        sink,
	}
}

// IcebergEvents returns the detection output buffer.
func (e *Engine) IcebergEvents() *router.GrowableBuffer[model.IcebergEvent] {
	return e.icebergOut
}

// Snapshots returns the snapshot output buffer.
func (e *Engine) Snapshots() *router.GrowableBuffer[model.FeatureSnapshot] {
	return e.snapshotOut
}

// Start begins the event loop.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.mu.Lock()
	e.lastEmitWall = time.Now()
	e.mu.Unlock()

	e.wg.Add(1)
	go e.eventLoop()

	e.wg.Add(1)
	go e.clockLoop()

	e.logger.Info("analytics engine started",
		"symbol", e.cfg.Symbol,
		"snapshot_interval", e.cfg.SnapshotInterval,
	)
	return nil
}

// Stop gracefully shuts down the engine and closes the output buffers.
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("stopping analytics engine")

	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("analytics engine stopped")
	case <-ctx.Done():
		e.logger.Warn("analytics engine stop timed out")
	}

	e.icebergOut.Close()
	e.snapshotOut.Close()

	return nil
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.stats
	s.WarmedUp = e.collector.IsWarmedUp()
	return s
}

// eventLoop consumes the single ordered input buffer. Book updates and
// trades arrive interleaved in wire order, so the detector always inspects
// a trade against the book state last known at or before the print.
func (e *Engine) eventLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}

		event, ok := e.inputs.Events.TryReceive()
		if !ok {
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(time.Millisecond):
			}
			continue
		}

		switch {
		case event.Book != nil:
			e.handleBookUpdate(*event.Book)
		case event.Trade != nil:
			e.handleTrade(*event.Trade)
		}
	}
}

// clockLoop emits wall-clock snapshots when the feed goes quiet, so the
// snapshot series keeps its cadence through dead tape.
func (e *Engine) clockLoop() {
	defer e.wg.Done()

	if e.cfg.SnapshotInterval <= 0 {
		return
	}

	ticker := time.NewTicker(e.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.mu.RLock()
			quiet := time.Since(e.lastEmitWall) >= 2*e.cfg.SnapshotInterval
			e.mu.RUnlock()

			if quiet {
				e.emitSnapshot(0)
			}
		}
	}
}

// handleBookUpdate applies one update to the mirror and feeds the collector.
func (e *Engine) handleBookUpdate(update model.BookUpdate) {
	err := e.book.ApplyUpdate(update)
	switch {
	case errors.Is(err, book.ErrCrossedBook):
		e.count(func(s *Stats) { s.CrossedBooks++ })
		e.logger.Warn("crossed book update rejected",
			"symbol", update.Symbol,
			"bid", update.BidPrice,
			"ask", update.AskPrice,
		)
		return
	case errors.Is(err, book.ErrSequenceGap):
		// The update is applied; the gap is only informational.
		e.count(func(s *Stats) { s.SequenceGaps++ })
		e.logger.Warn("book update sequence gap",
			"symbol", update.Symbol,
			"first_update_id", update.FirstUpdateID,
		)
	case err != nil:
		e.logger.Error("book update failed", "err", err)
		return
	}

	e.count(func(s *Stats) { s.BookUpdates++ })

	if mid, ok := e.book.MidPrice(); ok {
		e.collector.UpdatePrice(mid)
		e.collector.CheckWarmup()
	}

	e.maybeSnapshot(update.EventTS)
}

// handleTrade runs one print through CVD and the iceberg detector.
func (e *Engine) handleTrade(trade model.TradeEvent) {
	e.cvd.Ingest(trade)
	e.count(func(s *Stats) { s.Trades++ })
	e.collector.CheckWarmup()

	if event, ok := e.detector.Inspect(trade); ok {
		profile := e.tracker.Profile()
		event.Confidence, event.OnGammaWall = e.adjuster.Adjust(
			event.Confidence, profile, event.Price, event.Side,
		)

		e.icebergOut.Send(event)
		e.count(func(s *Stats) { s.IcebergEvents++ })

		e.logger.Info("iceberg detected",
			"symbol", event.Symbol,
			"side", event.Side,
			"price", event.Price,
			"hidden", event.HiddenVolume,
			"confidence", event.Confidence,
			"on_gamma_wall", event.OnGammaWall,
		)
	}

	e.maybeSnapshot(trade.EventTS)
}

// maybeSnapshot emits an event-time snapshot when a full interval of exchange
// time has elapsed since the last one.
func (e *Engine) maybeSnapshot(eventTS int64) {
	if eventTS <= 0 || e.cfg.SnapshotInterval <= 0 {
		return
	}

	intervalMS := e.cfg.SnapshotInterval.Milliseconds()

	e.mu.RLock()
	due := e.lastSnapshotTS == 0 || eventTS-e.lastSnapshotTS >= intervalMS
	e.mu.RUnlock()

	if due {
		e.emitSnapshot(eventTS)
	}
}

// emitSnapshot captures and publishes one snapshot. eventTS of 0 requests a
// wall-clock stamped snapshot.
func (e *Engine) emitSnapshot(eventTS int64) {
	snap, ok := e.collector.CaptureSnapshot(eventTS)
	if !ok {
		return
	}

	e.snapshotOut.Send(snap)

	e.mu.Lock()
	e.stats.Snapshots++
	if eventTS > 0 {
		e.lastSnapshotTS = eventTS
	}
	e.lastEmitWall = time.Now()
	e.mu.Unlock()

	if e.sink != nil {
		if err := e.sink.SetSnapshot(e.ctx, snap); err != nil {
			e.logger.Warn("snapshot cache publish failed", "err", err)
		}
	}
}

func (e *Engine) count(apply func(*Stats)) {
	e.mu.Lock()
	apply(&e.stats)
	e.mu.Unlock()
}
