package domain

import (
	"fmt"
	"math"
	"time"
)

// Confidence tags assigned during enrichment.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// ConfidenceThreshold separates "high" from "low" confidence bars.
// A bar is high-confidence when directional movement consumes more
// than this fraction of its range.
const ConfidenceThreshold = 0.7

// Bar represents one raw OHLC price bar for a currency pair.
// Corresponds to the price columns of the forex_bars table.
type Bar struct {
	Symbol   string    // currency pair, e.g. "EUR/USD"
	Datetime time.Time // bar open time, UTC, minute resolution
	Open     float64
	High     float64
	Low      float64
	Close    float64
}

// Validate checks Bar invariants: non-empty symbol, non-zero timestamp,
// and finite, non-negative prices.
func (b *Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar: empty symbol")
	}
	if b.Datetime.IsZero() {
		return fmt.Errorf("bar %s: zero timestamp", b.Symbol)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
	} {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return fmt.Errorf("bar %s @ %s: %s is not finite", b.Symbol, b.Datetime.Format(time.RFC3339), p.name)
		}
		if p.value < 0 {
			return fmt.Errorf("bar %s @ %s: negative %s %v", b.Symbol, b.Datetime.Format(time.RFC3339), p.name, p.value)
		}
	}
	return nil
}

// EnrichedBar is a Bar plus the derived pip and confidence metrics.
// Corresponds to a full forex_bars row.
type EnrichedBar struct {
	Bar
	PipHL           float64 // (high - low) * 10000, absolute range in pips
	PipOC           float64 // (close - open) * 10000, signed move in pips
	ConfidenceScore float64 // |PipOC| / PipHL, 0 when PipHL == 0
	ConfidenceTag   string  // "high" if score > 0.7, else "low"
}
