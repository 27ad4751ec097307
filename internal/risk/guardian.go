package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrFeeDeviation signals the venue's fee schedule no longer matches
// the pinned value. That means a venue policy change: stop and let a
// human review before any money moves.
var ErrFeeDeviation = fmt.Errorf("fee schedule deviates from pinned value")

// Limits holds the pre-flight thresholds from config.
// A zero value for any field means that check is disabled.
type Limits struct {
	PinnedTakerFeeBps int             // expected taker fee in live mode
	MaxOrderUSD       decimal.Decimal // hard cap per single order
}

type Guardian struct {
	limits  Limits
	sandbox bool
}

func NewGuardian(limits Limits, sandbox bool) *Guardian {
	return &Guardian{limits: limits, sandbox: sandbox}
}

// CheckFee validates the observed taker fee against the pinned
// schedule. Sandbox venues publish unrepresentative fees, so the check
// only runs in live mode.
func (g *Guardian) CheckFee(takerFeeBps int) error {
	if g.sandbox || g.limits.PinnedTakerFeeBps == 0 {
		return nil
	}
	if takerFeeBps != g.limits.PinnedTakerFeeBps {
		return fmt.Errorf("%w: venue reports %d bps, pinned at %d bps",
			ErrFeeDeviation, takerFeeBps, g.limits.PinnedTakerFeeBps)
	}
	return nil
}

// CheckOrder validates per-order constraints before submission.
// Returns nil if the order is allowed, a descriptive error if blocked.
func (g *Guardian) CheckOrder(estCostUSD decimal.Decimal) error {
	if g.limits.MaxOrderUSD.IsPositive() && estCostUSD.GreaterThan(g.limits.MaxOrderUSD) {
		return fmt.Errorf("order blocked: estimated cost $%s exceeds max $%s",
			estCostUSD, g.limits.MaxOrderUSD)
	}
	return nil
}
