// Package sizing turns a USD budget and a live quote into concrete
// order terms: a tick-rounded quantity and a deviation-bounded limit
// price. Pure computation, exact decimal arithmetic throughout.
package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wimmeldj/gemini-dca/internal/catalog"
	"github.com/wimmeldj/gemini-dca/internal/models"
)

var (
	// ErrBelowMinOrderSize means the budget buys less than the venue's
	// minimum purchasable quantity for the pair.
	ErrBelowMinOrderSize = fmt.Errorf("purchase amount below minimum order size")

	// ErrNonPositivePrice rejects zero or negative quotes. Some venues
	// report a literal 0 for illiquid pairs in sandbox environments;
	// that is "unavailable", never a valid quote.
	ErrNonPositivePrice = fmt.Errorf("quoted price is not positive")
)

// usd prices round to the currency minor unit.
const usdPrecision = 2

type Params struct {
	Instrument       catalog.Instrument
	BudgetUSD        decimal.Decimal
	Price            decimal.Decimal
	AllowedDeviation decimal.Decimal // fraction above quote tolerated, e.g. 0.002
}

// Size computes the order terms for one purchase attempt.
//
// Quantity is budget/price rounded half-to-even to the instrument's
// tick precision. The limit price is the quote inflated by the allowed
// deviation, rounded to cents: a ceiling on what the buyer will pay if
// the market moves between quoting and submission.
func Size(p Params) (models.SizedOrder, error) {
	if !p.Price.IsPositive() {
		return models.SizedOrder{}, fmt.Errorf("%w: %s quoted at %s", ErrNonPositivePrice, p.Instrument.Pair, p.Price)
	}
	if !p.BudgetUSD.IsPositive() {
		return models.SizedOrder{}, fmt.Errorf("budget must be positive, got %s", p.BudgetUSD)
	}
	if p.AllowedDeviation.IsNegative() {
		return models.SizedOrder{}, fmt.Errorf("allowed deviation must not be negative, got %s", p.AllowedDeviation)
	}

	quantity := p.BudgetUSD.Div(p.Price).RoundBank(p.Instrument.TickPrecision())
	if quantity.LessThan(p.Instrument.MinOrderSize) {
		return models.SizedOrder{}, fmt.Errorf("%w: %s %s computed, venue minimum is %s",
			ErrBelowMinOrderSize, quantity, p.Instrument.Pair, p.Instrument.MinOrderSize)
	}

	one := decimal.NewFromInt(1)
	limitPrice := p.Price.Mul(one.Add(p.AllowedDeviation)).RoundBank(usdPrecision)

	return models.SizedOrder{
		Pair:          p.Instrument.Pair,
		Quantity:      quantity,
		QuotePrice:    p.Price,
		LimitPrice:    limitPrice,
		EstCost:       p.Price.Mul(quantity).RoundBank(usdPrecision),
		EstCostMaxDev: limitPrice.Mul(quantity).RoundBank(usdPrecision),
	}, nil
}
