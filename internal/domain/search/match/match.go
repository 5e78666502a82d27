// Package match defines the explainable match score attached to ranked results.
package match

import "github.com/kailas-cloud/expertmatch/internal/domain/expert"

// MaxExplain caps the explanation list. Entries are ordered
// most-salient-first and never re-ordered after truncation.
const MaxExplain = 5

// Match is the fused 0-100 score (one decimal) with its explanation.
type Match struct {
	Score   float64
	Explain []string
}

// RankedExpert pairs a profile with its match for one search response.
type RankedExpert struct {
	Expert expert.Profile
	Match  Match
}

// Truncate bounds an explanation list to MaxExplain entries, preserving order.
func Truncate(explain []string) []string {
	if len(explain) > MaxExplain {
		return explain[:MaxExplain]
	}
	return explain
}

// ColorForScore maps a match score onto the UI badge band.
func ColorForScore(score float64) string {
	switch {
	case score < 65:
		return "red"
	case score <= 80:
		return "orange"
	default:
		return "green"
	}
}
