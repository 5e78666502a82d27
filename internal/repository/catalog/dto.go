package catalog

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
)

// Specialties are stored joined on "|" with original casing preserved;
// matching is case-insensitive at the domain layer.
const specialtySep = "|"

// buildHashFields converts a Profile into a flat map[string]string for HSET.
// Nullable fields are omitted entirely so parseHashFields can round-trip nil.
func buildHashFields(p *expert.Profile) map[string]string {
	m := map[string]string{
		"name":        p.Name,
		"company":     p.Company,
		"city":        p.City,
		"state":       p.State,
		"description": p.Description,
		"specialties": strings.Join(p.Specialties, specialtySep),
		"email":       p.Email,
		"phone":       p.Phone,
		"website":     p.Website,
		"thumbnail":   p.ThumbnailURL,
	}
	if p.Rating != nil {
		m["rating"] = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	if p.YearsExperience != nil {
		m["years_experience"] = strconv.Itoa(*p.YearsExperience)
	}
	return m
}

// parseHashFields converts a flat hash map back into a Profile.
func parseHashFields(id string, m map[string]string) expert.Profile {
	p := expert.Profile{
		ID:           id,
		Name:         m["name"],
		Company:      m["company"],
		City:         m["city"],
		State:        m["state"],
		Description:  m["description"],
		Email:        m["email"],
		Phone:        m["phone"],
		Website:      m["website"],
		ThumbnailURL: m["thumbnail"],
	}
	if s := m["specialties"]; s != "" {
		p.Specialties = strings.Split(s, specialtySep)
	}
	if s, ok := m["rating"]; ok && s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			p.Rating = &v
		}
	}
	if s, ok := m["years_experience"]; ok && s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			p.YearsExperience = &v
		}
	}
	return p
}
