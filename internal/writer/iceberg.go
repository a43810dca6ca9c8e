package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/annamatynian/smartmoney-data/internal/model"
	"github.com/annamatynian/smartmoney-data/internal/router"
)

// IcebergWriter consumes IcebergEvent from the engine buffer and writes to the
// iceberg_events table.
type IcebergWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	input *router.GrowableBuffer[model.IcebergEvent]

	db *pgxpool.Pool

	batch       []icebergRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewIcebergWriter creates a new IcebergWriter.
func NewIcebergWriter(
	cfg WriterConfig,
	input *router.GrowableBuffer[model.IcebergEvent],
	db *pgxpool.Pool,
	logger *slog.Logger,
) *IcebergWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &IcebergWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]icebergRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming events and writing to the database.
func (w *IcebergWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("iceberg writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *IcebergWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping iceberg writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("iceberg writer stopped")
	case <-ctx.Done():
		w.logger.Warn("iceberg writer stop timed out")
	}

	// Final flush
	w.flush()

	return nil
}

// Stats returns current metrics.
func (w *IcebergWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input buffer and accumulates batches.
func (w *IcebergWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			event, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleEvent(event)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *IcebergWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// handleEvent transforms and adds an event to the batch.
func (w *IcebergWriter) handleEvent(event model.IcebergEvent) {
	row := w.transform(event)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// transform converts an IcebergEvent to an icebergRow.
func (w *IcebergWriter) transform(event model.IcebergEvent) icebergRow {
	return icebergRow{
		EventID:       event.EventID.String(),
		Symbol:        event.Symbol,
		Side:          string(event.Side),
		Price:         event.Price.String(),
		TradedVolume:  event.TradedVolume.String(),
		VisibleVolume: event.VisibleVolume.String(),
		HiddenVolume:  event.HiddenVolume.String(),
		HiddenRatio:   event.HiddenRatio,
		Confidence:    event.Confidence,
		OnGammaWall:   event.OnGammaWall,
		EventTS:       event.EventTS,
		ReceivedAt:    event.ReceivedAt,
	}
}

// flush writes the current batch to the database.
func (w *IcebergWriter) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]icebergRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed iceberg events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *IcebergWriter) batchInsert(rows []icebergRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO iceberg_events (
				event_id, symbol, side, price,
				traded_volume, visible_volume, hidden_volume, hidden_ratio,
				confidence, on_gamma_wall, event_ts, received_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (event_id) DO NOTHING
		`, r.EventID, r.Symbol, r.Side, r.Price,
			r.TradedVolume, r.VisibleVolume, r.HiddenVolume, r.HiddenRatio,
			r.Confidence, r.OnGammaWall, r.EventTS, r.ReceivedAt)
	}

	results := w.db.SendBatch(w.ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
