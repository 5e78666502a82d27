package ranking

import "math"

// FullMatchScore is the score forced when the semantic backend reports that
// every query keyword matched a profile. The override replaces the weighted
// formula entirely.
const FullMatchScore = 100

// explainFullMatch prefixes the explanation list on a full-keyword-match
// override.
const explainFullMatch = "Full keyword match"

// Weights are the fusion coefficients for the semantic, lexical, and
// filter-bonus components. They are intended, but not required, to sum to 1.
type Weights struct {
	Sem  float64
	Kw   float64
	Filt float64
}

// DefaultWeights returns the standard fusion weights.
func DefaultWeights() Weights {
	return Weights{Sem: 0.60, Kw: 0.25, Filt: 0.15}
}

// Combine fuses three component scores (each in [0,1]) into a 0-100 match
// percentage with one decimal place. Monotonically non-decreasing in each
// component.
func (w Weights) Combine(sem, kw, filt float64) float64 {
	return normalizeScore(w.Sem*sem + w.Kw*kw + w.Filt*filt)
}

// normalizeScore clamps to [0,1] and scales to a 0-100 percentage rounded to
// one decimal place.
func normalizeScore(raw float64) float64 {
	clamped := math.Max(0, math.Min(1, raw))
	return math.Round(clamped*1000) / 10
}
