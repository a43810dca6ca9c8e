package router

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/connection"
	"github.com/annamatynian/smartmoney-data/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUnwrapFrame(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantType string
		wantErr  bool
	}{
		{
			name:     "raw payload",
			data:     `{"e":"aggTrade","s":"BTCUSDT"}`,
			wantType: "aggTrade",
		},
		{
			// The numeric event-time key must not shadow the event-type key:
			// json field matching is case-insensitive.
			name:     "payload with event time",
			data:     `{"e":"depthUpdate","E":1700000000123,"s":"BTCUSDT","U":1,"u":1,"b":[["100.0","2.0"]],"a":[["100.5","1.0"]]}`,
			wantType: "depthUpdate",
		},
		{
			name:     "combined stream envelope",
			data:     `{"stream":"btcusdt@depth","data":{"e":"depthUpdate","E":1700000000123,"s":"BTCUSDT"}}`,
			wantType: "depthUpdate",
		},
		{
			name:     "subscription ack has no event type",
			data:     `{"result":null,"id":1}`,
			wantType: "",
		},
		{
			name:    "invalid json",
			data:    `{not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, eventType, err := unwrapFrame([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("unwrapFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
			if eventType != tt.wantType {
				t.Errorf("unwrapFrame() type = %q, want %q", eventType, tt.wantType)
			}
		})
	}
}

func TestParseDepthUpdate(t *testing.T) {
	payload := `{
		"e": "depthUpdate",
		"E": 1700000000123,
		"s": "BTCUSDT",
		"U": 100,
		"u": 105,
		"b": [["50000.10", "1.25"]],
		"a": [["50000.20", "0.80"]]
	}`

	update, err := parseDepthUpdate([]byte(payload), 1700000000123456)
	if err != nil {
		t.Fatalf("parseDepthUpdate() error = %v", err)
	}

	if update.Symbol != "BTCUSDT" {
		t.Errorf("Symbol = %q, want %q", update.Symbol, "BTCUSDT")
	}
	if !update.BidPrice.Equal(dec("50000.10")) {
		t.Errorf("BidPrice = %s, want 50000.10", update.BidPrice)
	}
	if !update.BidQty.Equal(dec("1.25")) {
		t.Errorf("BidQty = %s, want 1.25", update.BidQty)
	}
	if !update.AskPrice.Equal(dec("50000.20")) {
		t.Errorf("AskPrice = %s, want 50000.20", update.AskPrice)
	}
	if !update.AskQty.Equal(dec("0.80")) {
		t.Errorf("AskQty = %s, want 0.80", update.AskQty)
	}
	if update.FirstUpdateID != 100 || update.FinalUpdateID != 105 {
		t.Errorf("update IDs = %d/%d, want 100/105", update.FirstUpdateID, update.FinalUpdateID)
	}
	if update.EventTS != 1700000000123 {
		t.Errorf("EventTS = %d, want 1700000000123", update.EventTS)
	}
	if update.ReceivedAt != 1700000000123456 {
		t.Errorf("ReceivedAt = %d, want 1700000000123456", update.ReceivedAt)
	}
}

func TestParseDepthUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "missing bid side",
			payload: `{"e":"depthUpdate","s":"BTCUSDT","b":[],"a":[["50000.20","0.80"]]}`,
		},
		{
			name:    "missing ask side",
			payload: `{"e":"depthUpdate","s":"BTCUSDT","b":[["50000.10","1.25"]],"a":[]}`,
		},
		{
			name:    "malformed price",
			payload: `{"e":"depthUpdate","s":"BTCUSDT","b":[["not-a-number","1.25"]],"a":[["50000.20","0.80"]]}`,
		},
		{
			name:    "truncated level",
			payload: `{"e":"depthUpdate","s":"BTCUSDT","b":[["50000.10"]],"a":[["50000.20","0.80"]]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseDepthUpdate([]byte(tt.payload), 0); err == nil {
				t.Error("parseDepthUpdate() error = nil, want error")
			}
		})
	}
}

func TestParseAggTrade(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantPrice   string
		wantQty     string
		wantSellHit bool
		wantTS      int64
	}{
		{
			name:        "buyer maker means seller initiated",
			payload:     `{"e":"aggTrade","E":1700000000100,"s":"BTCUSDT","p":"50000.10","q":"3.0","T":1700000000099,"m":true}`,
			wantPrice:   "50000.10",
			wantQty:     "3.0",
			wantSellHit: true,
			wantTS:      1700000000099,
		},
		{
			name:        "buyer aggressor",
			payload:     `{"e":"aggTrade","E":1700000000100,"s":"BTCUSDT","p":"50000.20","q":"0.5","T":1700000000099,"m":false}`,
			wantPrice:   "50000.20",
			wantQty:     "0.5",
			wantSellHit: false,
			wantTS:      1700000000099,
		},
		{
			name:        "missing trade time falls back to event time",
			payload:     `{"e":"aggTrade","E":1700000000100,"s":"BTCUSDT","p":"50000.20","q":"0.5","m":false}`,
			wantPrice:   "50000.20",
			wantQty:     "0.5",
			wantSellHit: false,
			wantTS:      1700000000100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade, err := parseAggTrade([]byte(tt.payload), 0)
			if err != nil {
				t.Fatalf("parseAggTrade() error = %v", err)
			}
			if !trade.Price.Equal(dec(tt.wantPrice)) {
				t.Errorf("Price = %s, want %s", trade.Price, tt.wantPrice)
			}
			if !trade.Quantity.Equal(dec(tt.wantQty)) {
				t.Errorf("Quantity = %s, want %s", trade.Quantity, tt.wantQty)
			}
			if trade.SellerInitiated != tt.wantSellHit {
				t.Errorf("SellerInitiated = %v, want %v", trade.SellerInitiated, tt.wantSellHit)
			}
			if trade.EventTS != tt.wantTS {
				t.Errorf("EventTS = %d, want %d", trade.EventTS, tt.wantTS)
			}
		})
	}
}

func TestParseAggTrade_MalformedQuantity(t *testing.T) {
	payload := `{"e":"aggTrade","s":"BTCUSDT","p":"50000.10","q":"??","m":true}`
	if _, err := parseAggTrade([]byte(payload), 0); err == nil {
		t.Error("parseAggTrade() error = nil, want error")
	}
}

// receiveEvent receives one routed event with a deadline so a stalled
// router fails the test instead of hanging it.
func receiveEvent(t *testing.T, buf *GrowableBuffer[model.FeedEvent]) model.FeedEvent {
	t.Helper()

	result := make(chan model.FeedEvent, 1)
	go func() {
		if event, ok := buf.Receive(); ok {
			result <- event
		}
	}()

	select {
	case event := <-result:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event routed before deadline")
		return model.FeedEvent{}
	}
}

func TestRouter_RoutesFrames(t *testing.T) {
	input := make(chan connection.RawMessage, 10)
	r := New(DefaultConfig(), input, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	now := time.Now()
	frames := []string{
		`{"e":"depthUpdate","E":1,"s":"BTCUSDT","U":1,"u":1,"b":[["100.0","2.0"]],"a":[["100.5","1.0"]]}`,
		`{"e":"aggTrade","E":2,"s":"BTCUSDT","p":"100.0","q":"3.0","T":2,"m":true}`,
		`{"result":null,"id":1}`, // subscription ack, skipped
		`{broken`,                // parse error
	}
	for _, f := range frames {
		input <- connection.RawMessage{Data: []byte(f), ReceivedAt: now}
	}

	bufs := r.Buffers()

	// Arrival order survives routing: the depth update first, then the trade.
	first := receiveEvent(t, bufs.Events)
	if first.Book == nil {
		t.Fatal("first routed event is not a book update")
	}
	if !first.Book.BidPrice.Equal(dec("100.0")) {
		t.Errorf("routed BidPrice = %s, want 100.0", first.Book.BidPrice)
	}

	second := receiveEvent(t, bufs.Events)
	if second.Trade == nil {
		t.Fatal("second routed event is not a trade")
	}
	if !second.Trade.SellerInitiated {
		t.Error("routed trade SellerInitiated = false, want true")
	}

	// Stats settle once the loop has consumed all four frames.
	deadline := time.After(time.Second)
	for {
		stats := r.Stats()
		if stats.FramesReceived == 4 {
			if stats.FramesRouted != 2 {
				t.Errorf("FramesRouted = %d, want 2", stats.FramesRouted)
			}
			if stats.UnknownFrames != 1 {
				t.Errorf("UnknownFrames = %d, want 1", stats.UnknownFrames)
			}
			if stats.ParseErrors != 1 {
				t.Errorf("ParseErrors = %d, want 1", stats.ParseErrors)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("stats never settled: %+v", stats)
		case <-time.After(5 * time.Millisecond):
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestRouter_StopClosesBuffers(t *testing.T) {
	input := make(chan connection.RawMessage)
	r := New(DefaultConfig(), input, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if _, ok := r.Buffers().Events.Receive(); ok {
		t.Error("event buffer Receive() ok = true after Stop, want false")
	}
}
