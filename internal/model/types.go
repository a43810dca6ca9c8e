package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Market Data Events
// -----------------------------------------------------------------------------

// Side identifies which side of the book an event refers to.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// BookUpdate is a validated top-of-book change from the exchange feed.
type BookUpdate struct {
	Symbol        string          // Instrument symbol (e.g. "BTCUSDT")
	BidPrice      decimal.Decimal // Best bid price
	BidQty        decimal.Decimal // Visible quantity resting at best bid
	AskPrice      decimal.Decimal // Best ask price
	AskQty        decimal.Decimal // Visible quantity resting at best ask
	FirstUpdateID int64           // First update ID covered by this event
	FinalUpdateID int64           // Final update ID covered by this event
	EventTS       int64           // Exchange timestamp (ms since epoch)
	ReceivedAt    int64           // Local receive timestamp (µs since epoch)
}

// TradeEvent is a single executed print from the exchange feed.
type TradeEvent struct {
	Symbol          string          // Instrument symbol
	Price           decimal.Decimal // Trade price
	Quantity        decimal.Decimal // Trade quantity (base units)
	SellerInitiated bool            // true = aggressor sold (hit the bid)
	EventTS         int64           // Exchange timestamp (ms since epoch)
	ReceivedAt      int64           // Local receive timestamp (µs since epoch)
}

// Notional returns price * quantity.
func (t TradeEvent) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

// FeedEvent is one sequenced message from the exchange stream. Exactly one
// of Book or Trade is non-nil. The feed is a single wire sequence: keeping
// both kinds in one event type preserves arrival order end to end, so a
// trade is always analyzed against the book state that preceded it.
type FeedEvent struct {
	Book  *BookUpdate
	Trade *TradeEvent
}

// -----------------------------------------------------------------------------
// CVD Segmentation
// -----------------------------------------------------------------------------

// Segment classifies a trade by notional size.
type Segment string

const (
	SegmentWhale   Segment = "whale"   // notional > whale threshold
	SegmentDolphin Segment = "dolphin" // between thresholds
	SegmentMinnow  Segment = "minnow"  // notional < minnow threshold
)

// Segments lists all segments in display order.
var Segments = []Segment{SegmentWhale, SegmentDolphin, SegmentMinnow}

// SegmentTotal is a running signed CVD total for one segment. Touched
// distinguishes a genuine zero total from a segment that never saw a trade.
type SegmentTotal struct {
	Total   decimal.Decimal
	Touched bool
}

// -----------------------------------------------------------------------------
// Options-Derived Inputs
// -----------------------------------------------------------------------------

// GammaProfile holds externally supplied gamma-wall levels. The analyzer only
// reads it; the options engine replaces it wholesale.
type GammaProfile struct {
	Symbol             string
	CallWall           decimal.Decimal // Upside wall price
	PutWall            decimal.Decimal // Downside wall price
	TotalExposure      float64         // Aggregate gamma exposure magnitude
	NormalizedExposure float64         // Exposure scaled to [-1, 1]
	ExpiryTS           int64           // Nearest expiry (ms since epoch)
	UpdatedAt          int64           // Fetch time (µs since epoch)
}

// -----------------------------------------------------------------------------
// Derived Outputs
// -----------------------------------------------------------------------------

// IcebergEvent reports inferred hidden resting liquidity at a price level.
// Emitted downstream, never retained by the detector.
type IcebergEvent struct {
	EventID       uuid.UUID       // Assigned at detection time
	Symbol        string          // Instrument symbol
	Side          Side            // Side where the hidden volume rests
	Price         decimal.Decimal // Price level of the detection
	TradedVolume  decimal.Decimal // Executed quantity of the triggering trade
	VisibleVolume decimal.Decimal // Book-visible quantity at trade time
	HiddenVolume  decimal.Decimal // TradedVolume - VisibleVolume
	HiddenRatio   float64         // HiddenVolume / TradedVolume
	Confidence    float64         // Detection confidence in [0, 1]
	OnGammaWall   bool            // Detection price within wall tolerance
	EventTS       int64           // Triggering trade's exchange time (ms)
	ReceivedAt    int64           // Local receive timestamp (µs)
}

// Snapshot sources.
const (
	SnapshotSourceEvent = "event" // Stamped with the driving event's exchange time
	SnapshotSourceClock = "clock" // Stamped with local wall-clock time
)

// FeatureSnapshot is a periodically assembled feature vector. Only produced
// once the collector is warm; never carries placeholder values.
type FeatureSnapshot struct {
	Symbol     string
	SnapshotTS int64                       // ms since epoch; exchange time when event-driven
	Source     string                      // "event" or "clock"
	MidPrice   decimal.Decimal             // Book mid-price at capture
	Spread     decimal.Decimal             // Ask - bid at capture
	CVD        map[Segment]decimal.Decimal // Running signed totals per segment
	AvgPrice   float64                     // Mean price over the warm window
	Volatility float64                     // Price stddev over the warm window
	WindowSize int                         // Samples in the warm window
}
