// Package enrich derives pip-range and confidence metrics from raw bars.
// All functions are pure: no I/O, deterministic for a given input.
package enrich

import (
	"math"

	"forex-bar-lab/internal/domain"
)

// pipsPerUnit converts a quote-currency price difference to pips for
// four-decimal forex pairs.
const pipsPerUnit = 10000.0

// Enrich computes the derived metrics for a single bar.
// A zero-range bar (high == low) yields a confidence score of exactly 0
// rather than a division error, and is therefore always tagged "low".
func Enrich(b domain.Bar) domain.EnrichedBar {
	pipHL := (b.High - b.Low) * pipsPerUnit
	pipOC := (b.Close - b.Open) * pipsPerUnit

	score := 0.0
	if pipHL != 0 {
		score = math.Abs(pipOC) / pipHL
	}

	tag := domain.ConfidenceLow
	if score > domain.ConfidenceThreshold {
		tag = domain.ConfidenceHigh
	}

	return domain.EnrichedBar{
		Bar:             b,
		PipHL:           pipHL,
		PipOC:           pipOC,
		ConfidenceScore: score,
		ConfidenceTag:   tag,
	}
}

// EnrichAll enriches a slice of bars, preserving input order.
func EnrichAll(bars []domain.Bar) []*domain.EnrichedBar {
	out := make([]*domain.EnrichedBar, 0, len(bars))
	for _, b := range bars {
		eb := Enrich(b)
		out = append(out, &eb)
	}
	return out
}
