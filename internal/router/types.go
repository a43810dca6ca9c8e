package router

import "encoding/json"

// Config holds the router buffer size.
type Config struct {
	EventBufferSize int // Default: 5000
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		EventBufferSize: 5000,
	}
}

// Wire types for JSON parsing (Binance-style combined stream).

// combinedFrame is the combined-stream envelope: {"stream": "...", "data": {...}}.
// Raw single-stream connections deliver the payload without the envelope.
type combinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// eventEnvelope is used for fast event-type extraction from a payload.
// EventTime must be declared alongside EventType: json matches field names
// case-insensitively, so without it the numeric "E" key would bind to the
// "e" field and fail to unmarshal.
type eventEnvelope struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
}

// depthWire is the wire format for depthUpdate payloads.
// Price/quantity levels arrive as decimal strings: [["50000.10", "1.25"], ...].
type depthWire struct {
	EventType     string     `json:"e"`
	EventTime     int64      `json:"E"` // ms since epoch
	Symbol        string     `json:"s"`
	FirstUpdateID int64      `json:"U"`
	FinalUpdateID int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

// aggTradeWire is the wire format for aggTrade payloads.
type aggTradeWire struct {
	EventType    string `json:"e"`
	EventTime    int64  `json:"E"` // ms since epoch
	Symbol       string `json:"s"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	TradeTime    int64  `json:"T"` // ms since epoch
	IsBuyerMaker bool   `json:"m"` // buyer was maker => aggressor sold
}
