package ranking

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
)

// filterBonus scores how well a profile agrees with the structured filters.
// Rules are additive and the total is clamped to 1.0; the reason list is not
// clamped and keeps rule order. Pure function, no store or network access.
func filterBonus(f filter.Filter, p *expert.Profile) (float64, []string) {
	score := 0.0
	var reasons []string

	switch {
	case f.State != "" && p.State != "" && strings.EqualFold(f.State, p.State):
		score += 0.40
		reasons = append(reasons, fmt.Sprintf("State match (%s) (0.40)", f.State))
	case f.State != "" && p.State != "" && f.State[0] == p.State[0]:
		// Loose proximity on the first character only.
		score += 0.15
		reasons = append(reasons, fmt.Sprintf("%s proximity (0.15)", f.State))
	}

	if f.City != "" && p.City != "" && strings.EqualFold(f.City, p.City) {
		score += 0.30
		reasons = append(reasons, fmt.Sprintf("City match (%s) (0.30)", f.City))
	}

	for _, tag := range f.Specialties {
		if p.HasSpecialty(tag) {
			score += 0.15
			reasons = append(reasons, fmt.Sprintf("%s (0.15)", tag))
		}
	}

	if f.MinRating > 0 && p.Rating != nil && *p.Rating >= f.MinRating {
		score += 0.05
		reasons = append(reasons, fmt.Sprintf("rating≥%g (0.05)", f.MinRating))
	}

	if score > 1 {
		score = 1
	}
	return score, reasons
}
