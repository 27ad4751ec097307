package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultLookup(t *testing.T) {
	c := Default()

	inst, err := c.Lookup("BTCUSD")
	if err != nil {
		t.Fatalf("Lookup(BTCUSD): %v", err)
	}
	if got := inst.TickPrecision(); got != 8 {
		t.Fatalf("BTCUSD tick precision: expected 8, got %d", got)
	}
	if !inst.MinOrderSize.Equal(decimal.RequireFromString("0.00001")) {
		t.Fatalf("BTCUSD min order size mismatch: %s", inst.MinOrderSize)
	}
}

func TestUnknownInstrumentFailsClosed(t *testing.T) {
	c := Default()

	_, err := c.Lookup("DOGEUSD")
	if !errors.Is(err, ErrUnknownInstrument) {
		t.Fatalf("expected ErrUnknownInstrument, got: %v", err)
	}
	if _, err := c.TickSize("DOGEUSD"); !errors.Is(err, ErrUnknownInstrument) {
		t.Fatalf("TickSize should fail closed, got: %v", err)
	}
	if _, err := c.MinOrderSize("DOGEUSD"); !errors.Is(err, ErrUnknownInstrument) {
		t.Fatalf("MinOrderSize should fail closed, got: %v", err)
	}
}

func TestRegisterRejectsBadConstants(t *testing.T) {
	c := New()

	cases := []struct {
		name string
		inst Instrument
	}{
		{"empty pair", Instrument{TickSize: dec("0.01"), MinOrderSize: dec("1")}},
		{"zero tick", Instrument{Pair: "X", TickSize: decimal.Zero, MinOrderSize: dec("1")}},
		{"negative tick", Instrument{Pair: "X", TickSize: dec("-0.01"), MinOrderSize: dec("1")}},
		{"non power of ten tick", Instrument{Pair: "X", TickSize: dec("0.05"), MinOrderSize: dec("1")}},
		{"zero min size", Instrument{Pair: "X", TickSize: dec("0.01"), MinOrderSize: decimal.Zero}},
	}

	for _, tc := range cases {
		if err := c.Register(tc.inst); err == nil {
			t.Fatalf("%s: expected registration to fail", tc.name)
		}
	}
}

func TestRegisterAcceptsScientificTick(t *testing.T) {
	c := New()
	inst := Instrument{Pair: "SOLUSD", TickSize: dec("1e-6"), MinOrderSize: dec("0.01")}
	if err := c.Register(inst); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := c.Lookup("SOLUSD")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.TickPrecision() != 6 {
		t.Fatalf("expected precision 6, got %d", got.TickPrecision())
	}
}
