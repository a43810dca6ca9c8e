package gamma

import (
	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

// Adjuster boosts detection confidence for events printing on a gamma wall.
type Adjuster struct {
	tolerance decimal.Decimal // relative on-wall tolerance (fraction of price)
	boost     float64         // additive confidence boost, capped at 1.0
}

// NewAdjuster creates an adjuster. tolerance is a fraction of price
// (0.001 = 0.1%); boost is added to confidence for on-wall events.
func NewAdjuster(tolerance decimal.Decimal, boost float64) *Adjuster {
	return &Adjuster{tolerance: tolerance, boost: boost}
}

// Adjust returns the adjusted confidence and whether the price sits on the
// relevant wall: the call wall for ask-side events (upside), the put wall for
// bid-side events (downside).
//
// A nil profile is not an error: confidence passes through unchanged.
func (a *Adjuster) Adjust(base float64, profile *model.GammaProfile, price decimal.Decimal, side model.Side) (float64, bool) {
	if profile == nil || !price.IsPositive() {
		return base, false
	}

	wall := profile.PutWall
	if side == model.SideAsk {
		wall = profile.CallWall
	}
	if !wall.IsPositive() {
		return base, false
	}

	// Relative distance: |price - wall| / price, compared in exact decimals
	// so tolerance-band edges never drift.
	distance := price.Sub(wall).Abs().Div(price)
	if distance.GreaterThan(a.tolerance) {
		return base, false
	}

	adjusted := base + a.boost
	if adjusted > 1.0 {
		adjusted = 1.0
	}
	return adjusted, true
}
