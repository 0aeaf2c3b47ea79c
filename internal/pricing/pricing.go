// Package pricing derives the per-line-item price fields from the raw
// quantity, rate and discount inputs. The two fixed margins are a trade
// pricing rule; do not fold them into one factor, reporting reads the
// intermediate trade price.
package pricing

import (
	"math"

	"invoicepad/internal/domain"
)

const (
	// tradeMargin is subtracted from the rate to get the trade price.
	tradeMargin = 0.145
	// discountMargin is subtracted from the trade price whenever any
	// discount percentage is engaged, regardless of its sign.
	discountMargin = 0.15
)

type Config struct {
	// AllowNegativeRate sends a negative rate through the margin formula
	// instead of zeroing the derived fields (credit/return lines).
	AllowNegativeRate bool
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) Engine {
	return Engine{cfg: cfg}
}

// Round2 rounds to 2 decimal places, half away from zero. Each derived
// field is rounded independently at its own stage.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Derive recomputes TradePrice, EffectiveUnitPrice and LineTotal from the
// raw fields. It is total: it never fails, whatever the inputs.
func (e Engine) Derive(item domain.LineItem) domain.LineItem {
	item.TradePrice = e.tradePrice(item.Rate)

	if item.DiscountPercent == 0 {
		item.EffectiveUnitPrice = item.TradePrice
	} else {
		// The discount base stays unrounded; the signed percentage is an
		// additive adjustment on it, not a percentage off the rate.
		base := item.TradePrice * (1 - discountMargin)
		item.EffectiveUnitPrice = Round2(base + base*(item.DiscountPercent/100))
	}

	item.LineTotal = Round2(item.EffectiveUnitPrice * item.Quantity)
	return item
}

func (e Engine) tradePrice(rate float64) float64 {
	if rate > 0 || (e.cfg.AllowNegativeRate && rate != 0) {
		return Round2(rate * (1 - tradeMargin))
	}
	return 0
}
