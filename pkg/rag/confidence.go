package rag

import "math"

// Confidence fusion weights. Fixed design constants, not configurable.
const (
	weightClassification = 0.25
	weightSimilarity     = 0.25
	weightAlignment      = 0.30
	weightQueryAnswer    = 0.20
)

// confidenceScore fuses the four components into a 0-100 percentage rounded
// to two decimals. Components are clamped into [0,1] first; the fusion
// contract only admits unit-interval inputs.
func confidenceScore(classification, similarity, alignment, queryAnswer float64) float64 {
	score := weightClassification*clamp01(classification) +
		weightSimilarity*clamp01(similarity) +
		weightAlignment*clamp01(alignment) +
		weightQueryAnswer*clamp01(queryAnswer)
	return math.Round(score*100*100) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// mean returns the arithmetic mean of values, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
