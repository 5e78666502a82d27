// Package searchlog defines the append-only record written after each search.
package searchlog

import (
	"time"

	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
)

// Entry summarizes one search request for the analytics sink. Writes are
// best-effort; a failed append never affects the search response.
type Entry struct {
	Query   string
	Filter  filter.Filter
	Results int
	TookMs  int64
	At      time.Time
}
