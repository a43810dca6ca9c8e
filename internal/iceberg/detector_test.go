package iceberg

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/book"
	"github.com/annamatynian/smartmoney-data/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bookWith(t *testing.T, bid, bidQty, ask, askQty string) *book.PriceLevelBook {
	t.Helper()
	b := book.New()
	err := b.ApplyUpdate(model.BookUpdate{
		Symbol:        "BTCUSDT",
		BidPrice:      dec(bid),
		BidQty:        dec(bidQty),
		AskPrice:      dec(ask),
		AskQty:        dec(askQty),
		FirstUpdateID: 1,
		FinalUpdateID: 1,
	})
	if err != nil {
		t.Fatalf("ApplyUpdate() error = %v", err)
	}
	return b
}

func sellTrade(price, qty string) model.TradeEvent {
	return model.TradeEvent{
		Symbol:          "BTCUSDT",
		Price:           dec(price),
		Quantity:        dec(qty),
		SellerInitiated: true,
		EventTS:         1705320000000,
	}
}

func buyTrade(price, qty string) model.TradeEvent {
	tr := sellTrade(price, qty)
	tr.SellerInitiated = false
	return tr
}

func TestInspect_SellSideHidden(t *testing.T) {
	b := bookWith(t, "100.0", "2.0", "100.1", "5.0")
	d := New(DefaultConfig(), b)

	ev, ok := d.Inspect(sellTrade("100.0", "3.0"))
	if !ok {
		t.Fatal("Inspect() ok = false, want detection")
	}

	if ev.Side != model.SideBid {
		t.Errorf("Side = %q, want bid", ev.Side)
	}
	if !ev.HiddenVolume.Equal(dec("1.0")) {
		t.Errorf("HiddenVolume = %s, want 1.0", ev.HiddenVolume)
	}
	if !ev.VisibleVolume.Equal(dec("2.0")) {
		t.Errorf("VisibleVolume = %s, want 2.0", ev.VisibleVolume)
	}
	if !ev.TradedVolume.Equal(dec("3.0")) {
		t.Errorf("TradedVolume = %s, want 3.0", ev.TradedVolume)
	}
	if ev.HiddenRatio < 0.333 || ev.HiddenRatio > 0.334 {
		t.Errorf("HiddenRatio = %v, want ~0.3333", ev.HiddenRatio)
	}
	if ev.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want base 0.6", ev.Confidence)
	}
	if ev.EventTS != 1705320000000 {
		t.Errorf("EventTS = %d, want trade event time", ev.EventTS)
	}
}

func TestInspect_PriceMovedThroughLevel(t *testing.T) {
	b := bookWith(t, "100.0", "2.0", "100.1", "5.0")
	d := New(DefaultConfig(), b)

	// Same quantity, but the print is below the bid: level was exhausted.
	if _, ok := d.Inspect(sellTrade("99.5", "3.0")); ok {
		t.Error("Inspect() ok = true for trade through the level, want false")
	}
}

func TestInspect_BuySideSymmetric(t *testing.T) {
	b := bookWith(t, "100.0", "2.0", "100.1", "1.5")
	d := New(DefaultConfig(), b)

	ev, ok := d.Inspect(buyTrade("100.1", "4.0"))
	if !ok {
		t.Fatal("Inspect() ok = false, want detection")
	}

	if ev.Side != model.SideAsk {
		t.Errorf("Side = %q, want ask", ev.Side)
	}
	if !ev.HiddenVolume.Equal(dec("2.5")) {
		t.Errorf("HiddenVolume = %s, want 2.5", ev.HiddenVolume)
	}

	// Print above the ask means the level broke.
	if _, ok := d.Inspect(buyTrade("100.2", "4.0")); ok {
		t.Error("Inspect() ok = true for trade above the ask, want false")
	}
}

func TestInspect_VisibleCoversPrint(t *testing.T) {
	b := bookWith(t, "100.0", "5.0", "100.1", "5.0")
	d := New(DefaultConfig(), b)

	if _, ok := d.Inspect(sellTrade("100.0", "3.0")); ok {
		t.Error("Inspect() ok = true when visible covers the print, want false")
	}
	// Exactly equal is not an iceberg either.
	if _, ok := d.Inspect(sellTrade("100.0", "5.0")); ok {
		t.Error("Inspect() ok = true when traded == visible, want false")
	}
}

func TestInspect_NoiseFloor(t *testing.T) {
	b := bookWith(t, "100.0", "2.0", "100.1", "5.0")
	d := New(DefaultConfig(), b)

	// Hidden = 0.005, below the 0.01 default floor.
	if _, ok := d.Inspect(sellTrade("100.0", "2.005")); ok {
		t.Error("Inspect() ok = true for sub-threshold hidden volume, want false")
	}

	// Hidden = 0.01 exactly passes the floor.
	if _, ok := d.Inspect(sellTrade("100.0", "2.01")); !ok {
		t.Error("Inspect() ok = false for hidden == floor, want true")
	}
}

func TestInspect_EmptyBook(t *testing.T) {
	d := New(DefaultConfig(), book.New())

	if _, ok := d.Inspect(sellTrade("100.0", "3.0")); ok {
		t.Error("Inspect() ok = true on unpopulated book, want false")
	}
}
