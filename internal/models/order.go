package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is a freshly fetched price for one pair. Quotes are never
// cached; staleness eats directly into the allowed-deviation budget.
type PriceQuote struct {
	Pair      string
	Price     decimal.Decimal
	FetchedAt time.Time
}

// SizedOrder holds the computed terms of a single purchase attempt:
// the tick-rounded quantity, the deviation-bounded limit price, and the
// cost estimates shown at the confirmation step.
type SizedOrder struct {
	Pair          string
	Quantity      decimal.Decimal
	QuotePrice    decimal.Decimal
	LimitPrice    decimal.Decimal
	EstCost       decimal.Decimal // quantity * quote price, 2dp
	EstCostMaxDev decimal.Decimal // quantity * limit price, 2dp
}

// EstCostWithFee returns EstCost inflated by the given fee fraction, 2dp.
func (o SizedOrder) EstCostWithFee(fee decimal.Decimal) decimal.Decimal {
	return o.EstCost.Mul(decimal.NewFromInt(1).Add(fee)).RoundBank(2)
}

// EstCostMaxDevWithFee returns EstCostMaxDev inflated by the given fee
// fraction, 2dp.
func (o SizedOrder) EstCostMaxDevWithFee(fee decimal.Decimal) decimal.Decimal {
	return o.EstCostMaxDev.Mul(decimal.NewFromInt(1).Add(fee)).RoundBank(2)
}

// Allocation assigns a fraction of the daily budget to one pair.
type Allocation struct {
	Pair   string
	Weight float64
}
