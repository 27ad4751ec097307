package models

import "github.com/shopspring/decimal"

// Fill is one executed trade as reported by the venue's trade history.
// Price, amount and fee stay decimal end to end so the ledger's cost
// basis never picks up binary-float drift.
type Fill struct {
	TradeID     int64           `json:"tid"`
	OrderID     string          `json:"order_id"`
	Timestamp   int64           `json:"timestamp"`
	TimestampMS int64           `json:"timestampms"`
	Type        string          `json:"type"` // "Buy" or "Sell"
	Pair        string          `json:"-"`    // mytrades rows do not echo the symbol
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
	FeeCurrency string          `json:"fee_currency"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
}

// CostBasis returns fee_amount + price*amount, exact.
func (f Fill) CostBasis() decimal.Decimal {
	return f.FeeAmount.Add(f.Price.Mul(f.Amount))
}
