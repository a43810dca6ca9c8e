package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/connection"
	"github.com/annamatynian/smartmoney-data/internal/model"
)

// Router parses raw feed frames and routes them to typed buffers.
type Router interface {
	// Start begins routing messages from the input channel.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the router and closes the output buffers.
	Stop(ctx context.Context) error

	// Buffers returns the typed output buffers for the engine to consume.
	Buffers() Buffers

	// Stats returns current router statistics.
	Stats() Stats
}

// Buffers provides access to the typed output buffers.
type Buffers struct {
	// Events carries book updates and trades in wire arrival order.
	Events *GrowableBuffer[model.FeedEvent]
}

// Stats contains runtime statistics.
type Stats struct {
	FramesReceived int64
	FramesRouted   int64
	ParseErrors    int64
	UnknownFrames  int64
	EventBuffer    BufferStats
}

var errEmptySide = errors.New("depth update with empty side")

// router is the internal implementation.
type router struct {
	cfg    Config
	logger *slog.Logger

	input <-chan connection.RawMessage

	eventBuf *GrowableBuffer[model.FeedEvent]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	received    int64
	routed      int64
	parseErrors int64
	unknown     int64
}

// New creates a message router.
func New(cfg Config, input <-chan connection.RawMessage, logger *slog.Logger) Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &router{
		cfg:      cfg,
		logger:   logger,
		input:    input,
		eventBuf: NewGrowableBuffer[model.FeedEvent](cfg.EventBufferSize),
	}
}

// Start begins routing messages.
func (r *router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("message router started",
		"event_buffer", r.cfg.EventBufferSize,
	)

	return nil
}

// Stop gracefully shuts down the router.
func (r *router) Stop(ctx context.Context) error {
	r.logger.Info("stopping message router")

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("message router stopped")
	case <-ctx.Done():
		r.logger.Warn("message router stop timed out")
	}

	r.eventBuf.Close()

	return nil
}

// Buffers returns the typed output buffers.
func (r *router) Buffers() Buffers {
	return Buffers{Events: r.eventBuf}
}

// Stats returns current statistics.
func (r *router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{
		FramesReceived: r.received,
		FramesRouted:   r.routed,
		ParseErrors:    r.parseErrors,
		UnknownFrames:  r.unknown,
		EventBuffer:    r.eventBuf.Stats(),
	}
}

// routeLoop is the main routing goroutine.
func (r *router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case raw, ok := <-r.input:
			if !ok {
				r.logger.Info("input channel closed")
				return
			}
			r.route(raw)
		}
	}
}

// route parses and routes a single frame.
func (r *router) route(raw connection.RawMessage) {
	r.count(&r.received)

	payload, eventType, err := unwrapFrame(raw.Data)
	if err != nil {
		r.logger.Warn("failed to extract event type", "err", err)
		r.count(&r.parseErrors)
		return
	}

	var sent bool

	switch eventType {
	case "depthUpdate":
		update, err := parseDepthUpdate(payload, raw.ReceivedAt.UnixMicro())
		if err != nil {
			r.logger.Warn("failed to parse depth update", "err", err)
			r.count(&r.parseErrors)
			return
		}
		sent = r.eventBuf.Send(model.FeedEvent{Book: &update})

	case "aggTrade":
		trade, err := parseAggTrade(payload, raw.ReceivedAt.UnixMicro())
		if err != nil {
			r.logger.Warn("failed to parse trade", "err", err)
			r.count(&r.parseErrors)
			return
		}
		sent = r.eventBuf.Send(model.FeedEvent{Trade: &trade})

	default:
		// Subscription acks and unknown stream kinds are skipped.
		r.count(&r.unknown)
		r.logger.Debug("skipping event type", "type", eventType)
		return
	}

	if sent {
		r.count(&r.routed)
	}
}

func (r *router) count(field *int64) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}

// unwrapFrame strips the combined-stream envelope when present and extracts
// the payload event type.
func unwrapFrame(data []byte) (payload []byte, eventType string, err error) {
	var frame combinedFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, "", err
	}

	payload = data
	if len(frame.Data) > 0 {
		payload = frame.Data
	}

	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, "", err
	}
	return payload, env.EventType, nil
}

// parseDepthUpdate converts a depthUpdate payload to a model.BookUpdate.
// Both sides must carry at least one level: this feed delivers best-level
// updates, and a one-sided frame cannot refresh the top of book atomically.
func parseDepthUpdate(payload []byte, receivedAt int64) (model.BookUpdate, error) {
	var wire depthWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return model.BookUpdate{}, err
	}

	if len(wire.Bids) == 0 || len(wire.Asks) == 0 || len(wire.Bids[0]) < 2 || len(wire.Asks[0]) < 2 {
		return model.BookUpdate{}, errEmptySide
	}

	bidPrice, err := decimal.NewFromString(wire.Bids[0][0])
	if err != nil {
		return model.BookUpdate{}, err
	}
	bidQty, err := decimal.NewFromString(wire.Bids[0][1])
	if err != nil {
		return model.BookUpdate{}, err
	}
	askPrice, err := decimal.NewFromString(wire.Asks[0][0])
	if err != nil {
		return model.BookUpdate{}, err
	}
	askQty, err := decimal.NewFromString(wire.Asks[0][1])
	if err != nil {
		return model.BookUpdate{}, err
	}

	return model.BookUpdate{
		Symbol:        wire.Symbol,
		BidPrice:      bidPrice,
		BidQty:        bidQty,
		AskPrice:      askPrice,
		AskQty:        askQty,
		FirstUpdateID: wire.FirstUpdateID,
		FinalUpdateID: wire.FinalUpdateID,
		EventTS:       wire.EventTime,
		ReceivedAt:    receivedAt,
	}, nil
}

// parseAggTrade converts an aggTrade payload to a model.TradeEvent.
func parseAggTrade(payload []byte, receivedAt int64) (model.TradeEvent, error) {
	var wire aggTradeWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return model.TradeEvent{}, err
	}

	price, err := decimal.NewFromString(wire.Price)
	if err != nil {
		return model.TradeEvent{}, err
	}
	qty, err := decimal.NewFromString(wire.Quantity)
	if err != nil {
		return model.TradeEvent{}, err
	}

	eventTS := wire.TradeTime
	if eventTS == 0 {
		eventTS = wire.EventTime
	}

	return model.TradeEvent{
		Symbol:          wire.Symbol,
		Price:           price,
		Quantity:        qty,
		SellerInitiated: wire.IsBuyerMaker, // maker-buyer means the aggressor sold
		EventTS:         eventTS,
		ReceivedAt:      receivedAt,
	}, nil
}
