// Package filter holds the structured predicate applied to expert profiles
// before ranking.
package filter

import "github.com/kailas-cloud/expertmatch/internal/domain/expert"

// Filter narrows the candidate set. Zero fields are ignored. State and city
// match exactly; specialty tags match case-insensitively and the filter
// passes if the profile carries any one of the requested tags.
type Filter struct {
	State              string
	City               string
	Specialties        []string
	MinRating          float64
	MinYearsExperience int
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return f.State == "" && f.City == "" && len(f.Specialties) == 0 &&
		f.MinRating == 0 && f.MinYearsExperience == 0
}

// Matches reports whether the profile passes every set predicate.
func (f Filter) Matches(p *expert.Profile) bool {
	if f.State != "" && p.State != f.State {
		return false
	}
	if f.City != "" && p.City != f.City {
		return false
	}
	if f.MinRating > 0 && p.RatingOrZero() < f.MinRating {
		return false
	}
	if f.MinYearsExperience > 0 && p.ExperienceOrZero() < f.MinYearsExperience {
		return false
	}
	if len(f.Specialties) > 0 {
		found := false
		for _, tag := range f.Specialties {
			if p.HasSpecialty(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
