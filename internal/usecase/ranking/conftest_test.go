package ranking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/expertmatch/internal/domain"
	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/query"
	"github.com/kailas-cloud/expertmatch/internal/domain/searchlog"
)

// --- Mocks ---

type mockCatalog struct {
	experts    []expert.Profile
	findErr    error
	retryErr   error
	countErr   error
	findCalls  int
	lastOrder  query.Order
	lastLimit  int
	lastOffset int
}

func (m *mockCatalog) FindMany(
	_ context.Context, f filter.Filter, order query.Order, limit, offset int,
) ([]expert.Profile, error) {
	m.findCalls++
	m.lastOrder = order
	m.lastLimit = limit
	m.lastOffset = offset
	if m.findCalls == 1 && m.findErr != nil {
		return nil, m.findErr
	}
	if m.findCalls > 1 && m.retryErr != nil {
		return nil, m.retryErr
	}

	var matched []expert.Profile
	for i := range m.experts {
		if f.Matches(&m.experts[i]) {
			matched = append(matched, m.experts[i])
		}
	}
	if order == query.OrderTopRated {
		matched = sortTopRated(matched)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func sortTopRated(profiles []expert.Profile) []expert.Profile {
	out := append([]expert.Profile{}, profiles...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := &out[j-1], &out[j]
			worse := a.RatingOrZero() < b.RatingOrZero() ||
				(a.RatingOrZero() == b.RatingOrZero() && a.ExperienceOrZero() < b.ExperienceOrZero())
			if !worse {
				break
			}
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (m *mockCatalog) Count(_ context.Context, f filter.Filter) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for i := range m.experts {
		if f.Matches(&m.experts[i]) {
			n++
		}
	}
	return n, nil
}

type mockSemantic struct {
	results      []domain.SemanticResult
	err          error
	healthy      bool
	searchCalled bool
	healthCalled bool
	lastQuery    string
	lastIDs      []string
}

func (m *mockSemantic) Search(_ context.Context, q string, ids []string) ([]domain.SemanticResult, error) {
	m.searchCalled = true
	m.lastQuery = q
	m.lastIDs = ids
	return m.results, m.err
}

func (m *mockSemantic) Healthy(_ context.Context) bool {
	m.healthCalled = true
	return m.healthy
}

type mockLogSink struct {
	entries []searchlog.Entry
	err     error
}

func (m *mockLogSink) Append(_ context.Context, e searchlog.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

type mockLimiter struct {
	deny bool
}

func (m *mockLimiter) Allow(_ string) bool { return !m.deny }

// --- Helpers ---

func testCatalog() *mockCatalog {
	return &mockCatalog{experts: []expert.Profile{
		{
			ID: "acme", Name: "Acme Masonry", Company: "Acme", City: "Raleigh", State: "NC",
			Description: "Sandstone and brick restoration",
			Specialties: []string{"Sandstone", "Masonry"},
			Rating:      f64(4.5), YearsExperience: intp(12),
		},
		{
			ID: "ridge", Name: "Blue Ridge Roofing", City: "Asheville", State: "NC",
			Description: "Residential roofing",
			Specialties: []string{"Roofing"},
			Rating:      f64(4.9), YearsExperience: intp(8),
		},
		{
			ID: "cascade", Name: "Cascade Plumbing", City: "Portland", State: "OR",
			Description: "Emergency plumbing",
			Specialties: []string{"Plumbing"},
			Rating:      f64(3.2), YearsExperience: intp(20),
		},
	}}
}

func newTestService(cat *mockCatalog, sem *mockSemantic, sink *mockLogSink, lim *mockLimiter) *Service {
	if cat == nil {
		cat = testCatalog()
	}
	if sem == nil {
		sem = &mockSemantic{}
	}
	if sink == nil {
		sink = &mockLogSink{}
	}
	if lim == nil {
		lim = &mockLimiter{}
	}
	return New(cat, sem, sink, lim, zap.NewNop())
}

func newQuery(text string, f filter.Filter, limit, offset int) query.Query {
	return query.New(text, f, limit, offset, mode.Best)
}

func hasExplain(explain []string, want string) bool {
	for _, e := range explain {
		if e == want {
			return true
		}
	}
	return false
}

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func inDelta(got, want, delta float64) bool {
	diff := got - want
	return diff < delta && diff > -delta
}
