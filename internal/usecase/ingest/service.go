// Package ingest imports expert profiles from CSV catalog exports.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/expertmatch/internal/domain"
	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/query"
)

// defaultName fills in for rows without a usable name column.
const defaultName = "Unknown Expert"

// Report summarizes one import run.
type Report struct {
	Created int
	Updated int
}

// Service imports CSV rows into the catalog. Rows are matched to existing
// profiles by (name, city, state); matches are updated in place, the rest
// are created with fresh ids.
type Service struct {
	catalog Catalog
	logger  *zap.Logger
}

// New creates an ingest service.
func New(catalog Catalog, logger *zap.Logger) *Service {
	return &Service{catalog: catalog, logger: logger}
}

// ImportCSV parses a header-keyed CSV stream and upserts every row.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Report{}, fmt.Errorf("%w: missing header row", domain.ErrInvalidCSV)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, hasName := cols["name"]; !hasName {
		if _, hasCompany := cols["company_name"]; !hasCompany {
			return Report{}, fmt.Errorf("%w: no name or company_name column", domain.ErrInvalidCSV)
		}
	}

	existing, err := s.catalog.FindMany(ctx, filter.Filter{}, query.OrderNone, 0, 0)
	if err != nil {
		return Report{}, fmt.Errorf("load existing profiles: %w", err)
	}
	byIdentity := make(map[string]string, len(existing))
	for i := range existing {
		byIdentity[identityKey(&existing[i])] = existing[i].ID
	}

	var report Report
	var batch []expert.Profile
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Report{}, fmt.Errorf("%w: line %d: %v", domain.ErrInvalidCSV, line, err)
		}

		p := mapRow(record, cols)
		if id, ok := byIdentity[identityKey(&p)]; ok {
			p.ID = id
			report.Updated++
		} else {
			p.ID = uuid.NewString()
			byIdentity[identityKey(&p)] = p.ID
			report.Created++
		}
		batch = append(batch, p)
	}

	if len(batch) == 0 {
		return report, nil
	}
	if err := s.catalog.UpsertMany(ctx, batch); err != nil {
		return Report{}, fmt.Errorf("store imported profiles: %w", err)
	}

	s.logger.Info("csv import finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated))
	return report, nil
}

// mapRow converts one CSV record into a Profile using the header column map.
func mapRow(record []string, cols map[string]int) expert.Profile {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	name := get("company_name")
	if name == "" {
		name = get("name")
	}
	if name == "" {
		name = defaultName
	}

	specialties := splitMulti(get("specialties"))
	if len(specialties) == 0 {
		specialties = splitMulti(get("categories"))
	}

	p := expert.Profile{
		Name:        name,
		Company:     get("company_name"),
		City:        get("city"),
		State:       get("state"),
		Description: get("description"),
		Specialties: specialties,
		Email:       get("email"),
		Phone:       get("contact_number"),
		Website:     get("website"),
	}

	if s := get("rating"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			p.Rating = &v
		}
	}
	if s := get("years_experience"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			p.YearsExperience = &v
		}
	}

	p.ThumbnailURL = get("thumbnail_url")
	if p.ThumbnailURL == "" {
		p.ThumbnailURL = fallbackAvatar(p.Name)
	}
	return p
}

var multiSep = regexp.MustCompile(`[|,]`)

// splitMulti splits a multi-valued cell on "|" or ",", trimming blanks.
func splitMulti(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range multiSep.Split(value, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// fallbackAvatar builds a generated-avatar URL for rows without a thumbnail.
func fallbackAvatar(name string) string {
	params := url.Values{}
	params.Set("name", name)
	params.Set("background", "0D8ABC")
	params.Set("color", "fff")
	params.Set("rounded", "true")
	return "https://ui-avatars.com/api/?" + params.Encode()
}

func identityKey(p *expert.Profile) string {
	return strings.ToLower(p.Name) + "\x00" + strings.ToLower(p.City) + "\x00" + strings.ToLower(p.State)
}
