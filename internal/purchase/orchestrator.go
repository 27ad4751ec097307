// Package purchase drives one dollar-cost-averaging cycle per pair:
// quote, size, confirm, submit, verify the fill, log it.
package purchase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wimmeldj/gemini-dca/internal/catalog"
	"github.com/wimmeldj/gemini-dca/internal/confirm"
	"github.com/wimmeldj/gemini-dca/internal/gemini"
	"github.com/wimmeldj/gemini-dca/internal/ledger"
	"github.com/wimmeldj/gemini-dca/internal/models"
	"github.com/wimmeldj/gemini-dca/internal/risk"
	"github.com/wimmeldj/gemini-dca/internal/sizing"
)

var (
	// ErrOrderCancelled means the venue reported the order as
	// cancelled; with fill-or-kill that is the normal "did not fill"
	// outcome and nothing is logged.
	ErrOrderCancelled = fmt.Errorf("order was cancelled")

	// ErrNoResponse means order submission returned no usable order.
	ErrNoResponse = fmt.Errorf("no response to order submission")

	// ErrNoFills means a verified order produced no trade-history rows.
	ErrNoFills = fmt.Errorf("no fills found after order execution")
)

// Exchange is the venue surface one cycle needs.
type Exchange interface {
	Price(ctx context.Context, pair string) (models.PriceQuote, error)
	SymbolDetails(ctx context.Context, pair string) (gemini.SymbolDetails, error)
	NotionalVolume(ctx context.Context) (gemini.FeeSchedule, error)
	NewOrder(ctx context.Context, req gemini.NewOrderRequest) (gemini.OrderResponse, error)
	TradesAfter(ctx context.Context, pair string, timestampMS int64) ([]models.Fill, bool, error)
}

// FillRecorder mirrors logged fills to secondary storage. Mirroring is
// best-effort; a recorder failure never fails the cycle.
type FillRecorder interface {
	Record(ctx context.Context, fill models.Fill) error
}

// Notifier receives one-line cycle reports.
type Notifier interface {
	Send(msg string)
}

// Outcome is the terminal state of one purchase cycle.
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports how one pair's cycle ended. Err is set only for
// OutcomeFailed; a decline is a normal Skipped outcome, not an error.
type Result struct {
	Pair    string
	Outcome Outcome
	Err     error
	Order   models.SizedOrder
	Fills   []models.Fill
}

type Options struct {
	AllowedDeviation decimal.Decimal // fraction above quote, e.g. 0.002
	OrderOptions     []string        // venue order options, e.g. fill-or-kill
}

type Orchestrator struct {
	exchange  Exchange
	catalog   *catalog.Catalog
	guard     *risk.Guardian
	confirmer confirm.Confirmer
	ledger    *ledger.Ledger
	mirror    FillRecorder // optional
	notify    Notifier     // optional
	opts      Options
}

func NewOrchestrator(
	exchange Exchange,
	cat *catalog.Catalog,
	guard *risk.Guardian,
	confirmer confirm.Confirmer,
	led *ledger.Ledger,
	opts Options,
) *Orchestrator {
	if len(opts.OrderOptions) == 0 {
		opts.OrderOptions = []string{"fill-or-kill"}
	}
	return &Orchestrator{
		exchange:  exchange,
		catalog:   cat,
		guard:     guard,
		confirmer: confirmer,
		ledger:    led,
		opts:      opts,
	}
}

// WithMirror attaches an optional secondary fill store.
func (o *Orchestrator) WithMirror(m FillRecorder) *Orchestrator {
	o.mirror = m
	return o
}

// WithNotifier attaches an optional cycle-report sink.
func (o *Orchestrator) WithNotifier(n Notifier) *Orchestrator {
	o.notify = n
	return o
}

// Run executes one purchase cycle for the pair with the given USD
// budget. Every failure aborts only this cycle; the ledger is touched
// only after a verified fill.
func (o *Orchestrator) Run(ctx context.Context, pair string, budgetUSD decimal.Decimal) Result {
	res := o.run(ctx, pair, budgetUSD)

	switch res.Outcome {
	case OutcomeDone:
		o.report("purchased %s %s @ limit %s USD (%d fill(s) logged)",
			res.Order.Quantity, pair, res.Order.LimitPrice, len(res.Fills))
	case OutcomeSkipped:
		o.report("cycle skipped: %s declined at confirmation", pair)
	case OutcomeFailed:
		o.report("cycle failed: %s: %v", pair, res.Err)
	}
	return res
}

func (o *Orchestrator) run(ctx context.Context, pair string, budgetUSD decimal.Decimal) Result {
	fail := func(err error) Result {
		return Result{Pair: pair, Outcome: OutcomeFailed, Err: err}
	}

	inst, err := o.catalog.Lookup(pair)
	if err != nil {
		return fail(err)
	}

	// Quoting
	fmt.Printf("[CYCLE] %s: fetching fee schedule and quote\n", pair)
	fees, err := o.exchange.NotionalVolume(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch fee schedule: %w", err))
	}
	fmt.Printf("[CYCLE] %s: taker fee %d bps, maker %d bps, 30d notional $%.2f\n",
		pair, fees.APITakerFeeBps, fees.APIMakerFeeBps, fees.NotionalVolume30D)
	if err := o.guard.CheckFee(fees.APITakerFeeBps); err != nil {
		return fail(err)
	}

	quote, err := o.exchange.Price(ctx, pair)
	if err != nil {
		return fail(err)
	}

	// The catalog is authoritative for sizing; a differing live
	// minimum just gets flagged for the operator.
	if details, err := o.exchange.SymbolDetails(ctx, pair); err != nil {
		fmt.Printf("[CYCLE] %s: warning: symbol details unavailable: %v\n", pair, err)
	} else if !details.MinOrderSize.Equal(inst.MinOrderSize) {
		fmt.Printf("[CYCLE] %s: warning: venue min order size %s differs from catalog %s\n",
			pair, details.MinOrderSize, inst.MinOrderSize)
	}

	// Sizing
	order, err := sizing.Size(sizing.Params{
		Instrument:       inst,
		BudgetUSD:        budgetUSD,
		Price:            quote.Price,
		AllowedDeviation: o.opts.AllowedDeviation,
	})
	if err != nil {
		return fail(err)
	}
	if err := o.guard.CheckOrder(order.EstCostMaxDev); err != nil {
		return fail(err)
	}

	// AwaitingConfirmation
	ok, err := o.confirmer.Confirm(Terms(order, fees.TakerFeeFraction()))
	if err != nil {
		return fail(fmt.Errorf("confirmation: %w", err))
	}
	if !ok {
		fmt.Printf("[CYCLE] %s: declined, nothing submitted\n", pair)
		return Result{Pair: pair, Outcome: OutcomeSkipped, Order: order}
	}

	// Submitting
	resp, err := o.exchange.NewOrder(ctx, gemini.NewOrderRequest{
		Symbol:  pair,
		Amount:  order.Quantity,
		Price:   order.LimitPrice,
		Side:    "buy",
		Type:    "exchange limit",
		Options: o.opts.OrderOptions,
	})
	if err != nil {
		return fail(err)
	}
	if resp.OrderID == "" {
		return fail(ErrNoResponse)
	}
	fmt.Printf("[CYCLE] %s: order %s submitted\n", pair, resp.OrderID)

	// VerifyingFill
	if resp.IsCancelled {
		return fail(fmt.Errorf("%w: order %s", ErrOrderCancelled, resp.OrderID))
	}

	// Logging
	fills, truncated, err := o.exchange.TradesAfter(ctx, pair, resp.TimestampMS)
	if err != nil {
		return fail(err)
	}
	if len(fills) == 0 {
		return fail(fmt.Errorf("%w: order %s", ErrNoFills, resp.OrderID))
	}
	if truncated {
		fmt.Printf("[CYCLE] %s: warning: trade history page full, older fills may be missing\n", pair)
	}

	if err := o.ledger.Append(fills); err != nil {
		return fail(fmt.Errorf("ledger: %w", err))
	}
	fmt.Printf("[LEDGER] %s: %d fill(s) appended to %s\n", pair, len(fills), o.ledger.Path())

	if o.mirror != nil {
		for _, fill := range fills {
			if err := o.mirror.Record(ctx, fill); err != nil {
				fmt.Printf("[DB] warning: mirror write failed for trade %d: %v\n", fill.TradeID, err)
			}
		}
	}

	return Result{Pair: pair, Outcome: OutcomeDone, Order: order, Fills: fills}
}

// RunPlan executes one independent cycle per allocation. A skipped or
// failed pair never blocks the pairs after it.
func (o *Orchestrator) RunPlan(ctx context.Context, plan []models.Allocation, dailyBudgetUSD decimal.Decimal) []Result {
	results := make([]Result, 0, len(plan))
	for _, alloc := range plan {
		budget := dailyBudgetUSD.Mul(decimal.NewFromFloat(alloc.Weight)).RoundBank(2)
		fmt.Printf("[PLAN] %s: weight %.4f -> $%s of $%s daily budget\n",
			alloc.Pair, alloc.Weight, budget, dailyBudgetUSD)
		results = append(results, o.Run(ctx, alloc.Pair, budget))
	}
	return results
}

func (o *Orchestrator) report(format string, args ...any) {
	if o.notify != nil {
		o.notify.Send(fmt.Sprintf(format, args...))
	}
}

// Terms renders the order for the confirmation step: quote, deviation
// allowance, fee, and cost estimates with and without the fee, at the
// quote and at maximum deviation.
func Terms(order models.SizedOrder, fee decimal.Decimal) string {
	dev := order.LimitPrice.Sub(order.QuotePrice)
	return fmt.Sprintf(`
Quoted market price      : %s USD
Allowed deviation        : +%s USD
Taker fee                : %s
                           w/out fee	with fee
Estimated total cost     : %s USD	%s USD
Total cost assm. max dev : %s USD	%s USD
===
Limit buy %s %s @ %s USD?`,
		order.QuotePrice,
		dev,
		fee,
		order.EstCost, order.EstCostWithFee(fee),
		order.EstCostMaxDev, order.EstCostMaxDevWithFee(fee),
		order.Quantity, order.Pair, order.LimitPrice)
}
