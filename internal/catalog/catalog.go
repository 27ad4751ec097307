package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownInstrument is returned for any pair without a registered
// tick size and minimum order size. Sizing fails closed on it.
var ErrUnknownInstrument = fmt.Errorf("unknown instrument")

// Instrument is a validated tradable pair. TickSize must be a positive
// power-of-ten fraction; MinOrderSize must be positive. Values are
// venue-published constants and are not checked against the live venue.
type Instrument struct {
	Pair         string
	TickSize     decimal.Decimal
	MinOrderSize decimal.Decimal
}

// TickPrecision is the number of decimal digits implied by the tick
// size, e.g. tick 1e-8 -> 8.
func (i Instrument) TickPrecision() int32 {
	return -i.TickSize.Exponent()
}

type Catalog struct {
	byPair map[string]Instrument
}

// Default returns a catalog pre-loaded with the pairs this automation
// trades. See Gemini's symbol details docs for the published values.
func Default() *Catalog {
	c := New()
	for _, inst := range []Instrument{
		{Pair: "BTCUSD", TickSize: dec("0.00000001"), MinOrderSize: dec("0.00001")},
		{Pair: "ETHUSD", TickSize: dec("0.000001"), MinOrderSize: dec("0.001")},
	} {
		if err := c.Register(inst); err != nil {
			panic(err) // static table, never invalid
		}
	}
	return c
}

func New() *Catalog {
	return &Catalog{byPair: make(map[string]Instrument)}
}

// Register adds an instrument after validating its constants.
func (c *Catalog) Register(inst Instrument) error {
	if inst.Pair == "" {
		return fmt.Errorf("instrument pair must be non-empty")
	}
	if !inst.TickSize.IsPositive() {
		return fmt.Errorf("instrument %s: tick size must be positive", inst.Pair)
	}
	// Power-of-ten check: the coefficient must be exactly 1.
	if !inst.TickSize.Equal(decimal.New(1, inst.TickSize.Exponent())) {
		return fmt.Errorf("instrument %s: tick size %s is not a power of ten", inst.Pair, inst.TickSize)
	}
	if !inst.MinOrderSize.IsPositive() {
		return fmt.Errorf("instrument %s: min order size must be positive", inst.Pair)
	}
	c.byPair[inst.Pair] = inst
	return nil
}

func (c *Catalog) Lookup(pair string) (Instrument, error) {
	inst, ok := c.byPair[pair]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, pair)
	}
	return inst, nil
}

func (c *Catalog) TickSize(pair string) (decimal.Decimal, error) {
	inst, err := c.Lookup(pair)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return inst.TickSize, nil
}

func (c *Catalog) MinOrderSize(pair string) (decimal.Decimal, error) {
	inst, err := c.Lookup(pair)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return inst.MinOrderSize, nil
}

func (c *Catalog) Pairs() []string {
	pairs := make([]string, 0, len(c.byPair))
	for p := range c.byPair {
		pairs = append(pairs, p)
	}
	return pairs
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
