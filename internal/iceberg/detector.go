// Package iceberg infers hidden resting liquidity from trade prints.
//
// When a print executes more quantity than the book showed at the touched
// level without the price trading through it, the excess must have been
// refilled from hidden volume resting at that price.
package iceberg

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/book"
	"github.com/annamatynian/smartmoney-data/internal/model"
)

// Config holds detection parameters.
type Config struct {
	MinHiddenSize  decimal.Decimal // hidden volume below this is noise
	BaseConfidence float64         // confidence before gamma adjustment
}

// DefaultConfig returns the standard detection parameters.
func DefaultConfig() Config {
	return Config{
		MinHiddenSize:  decimal.RequireFromString("0.01"),
		BaseConfidence: 0.6,
	}
}

// Detector estimates hidden volume from trades against the book mirror.
//
// The detector must see book state as of the trade's effective time; the
// engine's single sequenced event path guarantees the mirror was last updated
// at or before the trade being inspected.
type Detector struct {
	cfg  Config
	book *book.PriceLevelBook
}

// New creates a detector reading from the given book mirror.
func New(cfg Config, b *book.PriceLevelBook) *Detector {
	return &Detector{cfg: cfg, book: b}
}

// Inspect checks a single trade for hidden liquidity.
// ok is false when nothing detectable happened: the touched side is not yet
// populated, the visible quantity covered the print, the price traded through
// the level, or the hidden volume is below the noise floor.
func (d *Detector) Inspect(trade model.TradeEvent) (model.IcebergEvent, bool) {
	var (
		side  model.Side
		level book.PriceLevel
		seen  bool
	)

	if trade.SellerInitiated {
		// Aggressive sell hits the bid.
		side = model.SideBid
		level, seen = d.book.BestBid()
		if !seen {
			return model.IcebergEvent{}, false
		}
		// Price moved through the level: it was exhausted, not refilled.
		if trade.Price.LessThan(level.Price) {
			return model.IcebergEvent{}, false
		}
	} else {
		// Aggressive buy lifts the ask.
		side = model.SideAsk
		level, seen = d.book.BestAsk()
		if !seen {
			return model.IcebergEvent{}, false
		}
		if trade.Price.GreaterThan(level.Price) {
			return model.IcebergEvent{}, false
		}
	}

	if trade.Quantity.LessThanOrEqual(level.Quantity) {
		return model.IcebergEvent{}, false
	}

	hidden := trade.Quantity.Sub(level.Quantity)
	if hidden.LessThan(d.cfg.MinHiddenSize) {
		return model.IcebergEvent{}, false
	}

	ratio, _ := hidden.Div(trade.Quantity).Float64()

	return model.IcebergEvent{
		EventID:       uuid.New(),
		Symbol:        trade.Symbol,
		Side:          side,
		Price:         trade.Price,
		TradedVolume:  trade.Quantity,
		VisibleVolume: level.Quantity,
		HiddenVolume:  hidden,
		HiddenRatio:   ratio,
		Confidence:    d.cfg.BaseConfidence,
		EventTS:       trade.EventTS,
		ReceivedAt:    trade.ReceivedAt,
	}, true
}
