// Package query defines the validated, transient search request.
package query

import (
	"strings"

	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/mode"
)

// Pagination bounds.
const (
	DefaultLimit = 24
	MaxLimit     = 100
)

// EmptyQueryLog is the sentinel recorded in the search log when the query
// text is blank.
const EmptyQueryLog = "(empty)"

// Order is the optional secondary ordering the catalog store applies when
// the ranking core is not scoring results itself.
type Order int

const (
	// OrderNone leaves store ordering unspecified (deterministic by id).
	OrderNone Order = iota
	// OrderTopRated orders by rating descending, then experience descending.
	OrderTopRated
)

// Query is one search request. It is constructed per request, never
// persisted, and only summarized into a log entry.
type Query struct {
	text   string
	filter filter.Filter
	limit  int
	offset int
	sort   mode.Mode
}

// New normalizes a search request: limit defaults to 24 and is clamped to
// 100, negative offsets become 0, an unset sort mode becomes Best.
func New(text string, f filter.Filter, limit, offset int, m mode.Mode) Query {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if !m.IsValid() {
		m = mode.Best
	}
	return Query{text: text, filter: f, limit: limit, offset: offset, sort: m}
}

// Text returns the raw query text.
func (q *Query) Text() string { return q.text }

// Filter returns the structured filter set.
func (q *Query) Filter() filter.Filter { return q.filter }

// Limit returns the page size.
func (q *Query) Limit() int { return q.limit }

// Offset returns the page offset.
func (q *Query) Offset() int { return q.offset }

// Sort returns the requested sort mode.
func (q *Query) Sort() mode.Mode { return q.sort }

// IsEmpty reports whether the query text is blank or whitespace-only.
func (q *Query) IsEmpty() bool { return strings.TrimSpace(q.text) == "" }

// LogText returns the query text for the search log, substituting the
// "(empty)" sentinel for blank queries.
func (q *Query) LogText() string {
	if q.IsEmpty() {
		return EmptyQueryLog
	}
	return q.text
}
