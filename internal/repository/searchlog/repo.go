// Package searchlog persists search analytics entries in a capped Redis list.
package searchlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/searchlog"
)

// DefaultCap bounds the retained log; older entries are trimmed away.
const DefaultCap = 10000

// store is the consumer interface for the search log (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// entryDTO is the JSON shape stored in the list.
type entryDTO struct {
	Query              string   `json:"query"`
	State              string   `json:"state,omitempty"`
	City               string   `json:"city,omitempty"`
	Specialties        []string `json:"specialties,omitempty"`
	MinRating          float64  `json:"minRating,omitempty"`
	MinYearsExperience int      `json:"minYearsExperience,omitempty"`
	Results            int      `json:"results"`
	TookMs             int64    `json:"tookMs"`
	At                 string   `json:"at"`
}

// Repo appends search entries to a single capped list.
type Repo struct {
	store  store
	key    string
	maxLen int64
}

// New creates a search log repository. keyPrefix namespaces the list key.
func New(s store, keyPrefix string, maxLen int64) *Repo {
	if maxLen <= 0 {
		maxLen = DefaultCap
	}
	return &Repo{store: s, key: keyPrefix + "searchlog", maxLen: maxLen}
}

// Append records one entry and trims the list to the cap.
func (r *Repo) Append(ctx context.Context, e searchlog.Entry) error {
	raw, err := json.Marshal(toDTO(e))
	if err != nil {
		return fmt.Errorf("marshal search log entry: %w", err)
	}
	if err := r.store.RPush(ctx, r.key, string(raw)); err != nil {
		return fmt.Errorf("rpush search log: %w", err)
	}
	if err := r.store.LTrim(ctx, r.key, -r.maxLen, -1); err != nil {
		return fmt.Errorf("ltrim search log: %w", err)
	}
	return nil
}

// Count returns the number of retained entries.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.LLen(ctx, r.key)
	if err != nil {
		return 0, fmt.Errorf("llen search log: %w", err)
	}
	return int(n), nil
}

// Recent returns the newest n entries, most recent first. Entries that fail
// to parse are skipped rather than failing the whole read.
func (r *Repo) Recent(ctx context.Context, n int) ([]searchlog.Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	raws, err := r.store.LRange(ctx, r.key, int64(-n), -1)
	if err != nil {
		return nil, fmt.Errorf("lrange search log: %w", err)
	}

	entries := make([]searchlog.Entry, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		var dto entryDTO
		if err := json.Unmarshal([]byte(raws[i]), &dto); err != nil {
			continue
		}
		entries = append(entries, fromDTO(dto))
	}
	return entries, nil
}

func toDTO(e searchlog.Entry) entryDTO {
	return entryDTO{
		Query:              e.Query,
		State:              e.Filter.State,
		City:               e.Filter.City,
		Specialties:        e.Filter.Specialties,
		MinRating:          e.Filter.MinRating,
		MinYearsExperience: e.Filter.MinYearsExperience,
		Results:            e.Results,
		TookMs:             e.TookMs,
		At:                 e.At.UTC().Format(time.RFC3339Nano),
	}
}

func fromDTO(dto entryDTO) searchlog.Entry {
	at, _ := time.Parse(time.RFC3339Nano, dto.At)
	return searchlog.Entry{
		Query: dto.Query,
		Filter: filter.Filter{
			State:              dto.State,
			City:               dto.City,
			Specialties:        dto.Specialties,
			MinRating:          dto.MinRating,
			MinYearsExperience: dto.MinYearsExperience,
		},
		Results: dto.Results,
		TookMs:  dto.TookMs,
		At:      at,
	}
}
