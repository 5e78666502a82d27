// Package expert defines the catalog's profile record.
package expert

import "strings"

// Profile is a service-provider record from the catalog store. The ranking
// core treats profiles as read-only; only ingestion and admin paths mutate
// them. Rating and YearsExperience are nullable in the catalog.
type Profile struct {
	ID              string
	Name            string
	Company         string
	City            string
	State           string
	Description     string
	Specialties     []string
	Rating          *float64
	YearsExperience *int
	Email           string
	Phone           string
	Website         string
	ThumbnailURL    string
}

// Document concatenates the searchable fields into one text blob for
// per-request lexical indexing.
func (p *Profile) Document() string {
	parts := []string{
		p.Name,
		p.Company,
		p.Description,
		strings.Join(p.Specialties, " "),
		p.City,
		p.State,
	}
	return strings.Join(parts, " ")
}

// RatingOrZero returns the rating, treating an absent rating as 0.
func (p *Profile) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// ExperienceOrZero returns the years of experience, treating absence as 0.
func (p *Profile) ExperienceOrZero() int {
	if p.YearsExperience == nil {
		return 0
	}
	return *p.YearsExperience
}

// HasSpecialty reports whether the profile carries the given specialty tag.
// Tags are compared case-insensitively but stored with original casing.
func (p *Profile) HasSpecialty(tag string) bool {
	for _, s := range p.Specialties {
		if strings.EqualFold(s, tag) {
			return true
		}
	}
	return false
}
