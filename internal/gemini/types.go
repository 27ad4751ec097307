package gemini

import "github.com/shopspring/decimal"

// SymbolDetails is the public per-pair metadata the venue publishes.
type SymbolDetails struct {
	Symbol         string          `json:"symbol"`
	BaseCurrency   string          `json:"base_currency"`
	QuoteCurrency  string          `json:"quote_currency"`
	TickSize       decimal.Decimal `json:"tick_size"`
	QuoteIncrement decimal.Decimal `json:"quote_increment"`
	MinOrderSize   decimal.Decimal `json:"min_order_size"`
	Status         string          `json:"status"`
}

// NewOrderRequest carries the terms of a limit order submission.
type NewOrderRequest struct {
	Symbol  string
	Amount  decimal.Decimal
	Price   decimal.Decimal
	Side    string   // "buy" or "sell"
	Type    string   // "exchange limit"
	Options []string // e.g. "fill-or-kill"
}

// OrderResponse is the venue's view of an order, returned by both
// order/new and order/status.
type OrderResponse struct {
	OrderID         string          `json:"order_id"`
	Symbol          string          `json:"symbol"`
	Side            string          `json:"side"`
	Type            string          `json:"type"`
	Price           decimal.Decimal `json:"price"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	ExecutedAmount  decimal.Decimal `json:"executed_amount"`
	AvgExecutionPx  decimal.Decimal `json:"avg_execution_price"`
	IsLive          bool            `json:"is_live"`
	IsCancelled     bool            `json:"is_cancelled"`
	Timestamp       int64           `json:"timestamp,string"`
	TimestampMS     int64           `json:"timestampms"`
	Options         []string        `json:"options"`
}

// FeeSchedule is the account's fee and 30-day volume summary.
type FeeSchedule struct {
	APIMakerFeeBps    int     `json:"api_maker_fee_bps"`
	APITakerFeeBps    int     `json:"api_taker_fee_bps"`
	APIAuctionFeeBps  int     `json:"api_auction_fee_bps"`
	NotionalVolume30D float64 `json:"notional_30d_volume"`
}

// TakerFeeFraction converts the taker fee from basis points to a
// decimal fraction (35 bps -> 0.0035).
func (f FeeSchedule) TakerFeeFraction() decimal.Decimal {
	return decimal.New(int64(f.APITakerFeeBps), -4)
}
