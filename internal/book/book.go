// Package book maintains a local top-of-book mirror for a single instrument.
//
// The mirror is fed validated BookUpdate events and exposes best bid/ask,
// mid-price and visible quantity. "Not yet populated" is an explicit state:
// a genuine zero-quantity level is never confused with an unseen side.
package book

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

// Errors
var (
	// ErrCrossedBook means an update would leave ask <= bid. The update is rejected.
	ErrCrossedBook = errors.New("crossed book: ask <= bid")

	// ErrSequenceGap means update IDs were not contiguous. The update is still
	// applied (a top-of-book replace is self-healing) but the caller must treat
	// the mirror as needing a resync.
	ErrSequenceGap = errors.New("update id sequence gap")
)

// PriceLevel is a price with its visible resting quantity.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// PriceLevelBook mirrors best-bid/best-ask state from book update events.
// Safe for concurrent readers; mutations are serialized by the event loop.
type PriceLevelBook struct {
	mu sync.RWMutex

	bid     PriceLevel
	ask     PriceLevel
	bidSeen bool
	askSeen bool

	firstUpdateID int64
	finalUpdateID int64
}

// New creates an empty book mirror.
func New() *PriceLevelBook {
	return &PriceLevelBook{}
}

// ApplyUpdate replaces both sides of the top of book atomically.
//
// Returns ErrCrossedBook (update rejected) if the new state would cross, or
// ErrSequenceGap (update applied) if the update-id range is not contiguous
// with the previous one.
func (b *PriceLevelBook) ApplyUpdate(u model.BookUpdate) error {
	if u.AskPrice.IsPositive() && u.BidPrice.IsPositive() && u.AskPrice.LessThanOrEqual(u.BidPrice) {
		return ErrCrossedBook
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	gap := b.finalUpdateID > 0 && u.FirstUpdateID > b.finalUpdateID+1

	b.bid = PriceLevel{Price: u.BidPrice, Quantity: u.BidQty}
	b.ask = PriceLevel{Price: u.AskPrice, Quantity: u.AskQty}
	b.bidSeen = b.bidSeen || u.BidPrice.IsPositive()
	b.askSeen = b.askSeen || u.AskPrice.IsPositive()
	b.firstUpdateID = u.FirstUpdateID
	b.finalUpdateID = u.FinalUpdateID

	if gap {
		return ErrSequenceGap
	}
	return nil
}

// BestBid returns the best bid level. ok is false until a bid has been seen.
func (b *PriceLevelBook) BestBid() (PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bid, b.bidSeen
}

// BestAsk returns the best ask level. ok is false until an ask has been seen.
func (b *PriceLevelBook) BestAsk() (PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ask, b.askSeen
}

// MidPrice returns (bid+ask)/2. ok is false until both sides have been seen.
func (b *PriceLevelBook) MidPrice() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.bidSeen || !b.askSeen {
		return decimal.Decimal{}, false
	}
	return b.bid.Price.Add(b.ask.Price).Div(decimal.NewFromInt(2)), true
}

// Spread returns ask-bid. ok is false until both sides have been seen.
func (b *PriceLevelBook) Spread() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.bidSeen || !b.askSeen {
		return decimal.Decimal{}, false
	}
	return b.ask.Price.Sub(b.bid.Price), true
}

// VisibleQuantity returns the resting quantity on one side.
// ok is false until that side has been seen.
func (b *PriceLevelBook) VisibleQuantity(side model.Side) (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	switch side {
	case model.SideBid:
		return b.bid.Quantity, b.bidSeen
	default:
		return b.ask.Quantity, b.askSeen
	}
}

// UpdateIDRange returns the last applied [first, final] update-id range.
func (b *PriceLevelBook) UpdateIDRange() (first, final int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.firstUpdateID, b.finalUpdateID
}
