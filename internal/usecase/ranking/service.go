// Package ranking implements the hybrid expert ranking pipeline: candidate
// retrieval, per-request lexical scoring, semantic re-ranking, filter
// bonuses, score fusion, and the layered degrade chain.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/match"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/query"
	"github.com/kailas-cloud/expertmatch/internal/domain/searchlog"
	"github.com/kailas-cloud/expertmatch/internal/metrics"
)

// SemanticMode controls when the pipeline consults the semantic backend.
type SemanticMode string

const (
	// SemanticOn always calls the backend (errors still degrade to sem=0).
	SemanticOn SemanticMode = "on"
	// SemanticOff never calls the backend; ranking is lexical plus bonuses.
	SemanticOff SemanticMode = "off"
	// SemanticProbe checks the backend's health endpoint per request and
	// upgrades from lexical-only when it answers ok.
	SemanticProbe SemanticMode = "probe"
)

// Degrade-chain explanation sentinels.
const (
	reasonRateLimited      = "Rate limit fallback"
	reasonTopRatedDefault  = "Default: top-rated"
	reasonTopRatedFallback = "Fallback: top-rated"
)

// Response is one ranked search result page.
type Response struct {
	Results []match.RankedExpert
	Total   int
	TookMs  int64
}

// Service is the ranking orchestrator. Expected degraded conditions
// (throttled client, empty query, semantic outage, empty page) are chain
// states, not errors: Rank always returns a well-formed response.
type Service struct {
	catalog  Catalog
	semantic SemanticSearcher
	logs     LogSink
	limiter  Limiter
	logger   *zap.Logger
	weights  Weights
	semMode  SemanticMode
}

// New creates a ranking service with default weights and semantic mode on.
func New(catalog Catalog, semantic SemanticSearcher, logs LogSink, limiter Limiter, logger *zap.Logger) *Service {
	return &Service{
		catalog:  catalog,
		semantic: semantic,
		logs:     logs,
		limiter:  limiter,
		logger:   logger,
		weights:  DefaultWeights(),
		semMode:  SemanticOn,
	}
}

// WithWeights overrides the fusion weights.
func (s *Service) WithWeights(w Weights) *Service {
	s.weights = w
	return s
}

// WithSemanticMode overrides the semantic mode.
func (s *Service) WithSemanticMode(m SemanticMode) *Service {
	s.semMode = m
	return s
}

// Rank runs the degrade chain for one request and returns a ranked page.
func (s *Service) Rank(ctx context.Context, q query.Query, clientID string) (Response, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	if !s.limiter.Allow(clientID) {
		metrics.ThrottledTotal.Inc()
		metrics.SearchesTotal.WithLabelValues("throttled").Inc()
		return s.rankThrottled(ctx, q, start), nil
	}

	if q.IsEmpty() {
		metrics.SearchesTotal.WithLabelValues("empty_query").Inc()
		return s.rankEmptyQuery(ctx, q, start), nil
	}

	return s.rankHybrid(ctx, q, start), nil
}

// rankThrottled serves a top-rated listing that ignores query weighting.
func (s *Service) rankThrottled(ctx context.Context, q query.Query, start time.Time) Response {
	experts, total := s.fetchPage(ctx, filter.Filter{}, q.Limit(), q.Offset())

	results := make([]match.RankedExpert, 0, len(experts))
	for i := range experts {
		results = append(results, match.RankedExpert{
			Expert: experts[i],
			Match: match.Match{
				Score:   s.weights.Combine(0, 0, 0),
				Explain: []string{reasonRateLimited},
			},
		})
	}

	resp := s.respond(results, total, start)
	s.logSearch(ctx, q, len(results), resp.TookMs)
	return resp
}

// rankEmptyQuery serves top-rated profiles under the requested filters,
// scored by filter bonus only. The lexical and semantic paths never run.
func (s *Service) rankEmptyQuery(ctx context.Context, q query.Query, start time.Time) Response {
	f := q.Filter()
	experts, total := s.fetchPage(ctx, f, q.Limit(), q.Offset())

	results := make([]match.RankedExpert, 0, len(experts))
	for i := range experts {
		filt, reasons := filterBonus(f, &experts[i])
		results = append(results, match.RankedExpert{
			Expert: experts[i],
			Match: match.Match{
				Score:   s.weights.Combine(0, 0, filt),
				Explain: match.Truncate(append(reasons, reasonTopRatedDefault)),
			},
		})
	}

	resp := s.respond(results, total, start)
	s.logSearch(ctx, q, len(results), resp.TookMs)
	return resp
}

// rankHybrid runs the full pipeline: fetch, lexical index, optional semantic
// call, fusion, sort, paginate, and the empty-page fallback.
func (s *Service) rankHybrid(ctx context.Context, q query.Query, start time.Time) Response {
	f := q.Filter()

	experts, err := s.fetchCandidates(ctx, f)
	if err != nil {
		s.logger.Warn("candidate fetch failed twice, degrading to empty set", zap.Error(err))
		experts = nil
	}

	total, err := s.catalog.Count(ctx, f)
	if err != nil {
		s.logger.Warn("candidate count failed", zap.Error(err))
		total = 0
	}

	lexical := scoreLexical(experts, q.Text())
	sem := s.semanticScores(ctx, q.Text(), lexical.topIDs, len(experts))

	results := make([]match.RankedExpert, 0, len(experts))
	for i := range experts {
		e := &experts[i]
		filt, reasons := filterBonus(f, e)
		score := s.weights.Combine(sem.scores[e.ID], lexical.norm[i], filt)

		explain := match.Truncate(append(append([]string{}, sem.explain[e.ID]...), reasons...))
		if sem.fullMatch[e.ID] {
			score = FullMatchScore
			explain = match.Truncate(append([]string{explainFullMatch}, explain...))
		}

		results = append(results, match.RankedExpert{
			Expert: *e,
			Match:  match.Match{Score: score, Explain: explain},
		})
	}

	sortResults(results, q.Sort())
	page := paginate(results, q.Offset(), q.Limit())

	state := "hybrid"
	if len(page) == 0 {
		state = "fallback"
		page = s.fallbackTopRated(ctx, q)
	}
	metrics.SearchesTotal.WithLabelValues(state).Inc()

	resp := s.respond(page, total, start)
	s.logSearch(ctx, q, len(page), resp.TookMs)
	return resp
}

// fallbackTopRated serves the empty-page fallback: top-rated profiles under
// the same filters, annotated with filter-bonus-only scores. The fallback
// restarts at offset 0 so an out-of-range offset still yields results.
func (s *Service) fallbackTopRated(ctx context.Context, q query.Query) []match.RankedExpert {
	f := q.Filter()
	experts, _ := s.fetchPage(ctx, f, q.Limit(), 0)

	page := make([]match.RankedExpert, 0, len(experts))
	for i := range experts {
		filt, reasons := filterBonus(f, &experts[i])
		page = append(page, match.RankedExpert{
			Expert: experts[i],
			Match: match.Match{
				Score:   s.weights.Combine(0, 0, filt),
				Explain: match.Truncate(append(reasons, reasonTopRatedFallback)),
			},
		})
	}
	return page
}

// semanticResults collects the per-profile signals from the semantic backend.
type semanticResults struct {
	scores    map[string]float64
	explain   map[string][]string
	fullMatch map[string]bool
}

// semanticScores calls the semantic backend when the mode allows it. Any
// failure degrades to zero semantic signal; a semantic outage never fails
// the request.
func (s *Service) semanticScores(ctx context.Context, text string, candidateIDs []string, nCandidates int) semanticResults {
	out := semanticResults{
		scores:    map[string]float64{},
		explain:   map[string][]string{},
		fullMatch: map[string]bool{},
	}
	if nCandidates == 0 || s.semantic == nil {
		return out
	}

	switch s.semMode {
	case SemanticOff:
		return out
	case SemanticProbe:
		if !s.semantic.Healthy(ctx) {
			return out
		}
	}

	results, err := s.semantic.Search(ctx, text, candidateIDs)
	if err != nil {
		s.logger.Debug("semantic backend unavailable, continuing lexical-only", zap.Error(err))
		return out
	}

	for _, r := range results {
		out.scores[r.ID] = r.Score
		if len(r.TopTerms) > 0 {
			terms := make([]string, 0, len(r.TopTerms))
			for _, t := range r.TopTerms {
				terms = append(terms, fmt.Sprintf("%s (%.2f)", t.Term, t.Weight))
			}
			out.explain[r.ID] = terms
		}
		if r.AllKeywordsMatched {
			out.fullMatch[r.ID] = true
		}
	}
	return out
}

// fetchCandidates loads the full filtered candidate set, retrying once with
// no ordering clause before giving up.
func (s *Service) fetchCandidates(ctx context.Context, f filter.Filter) ([]expert.Profile, error) {
	experts, err := s.catalog.FindMany(ctx, f, query.OrderNone, 0, 0)
	if err == nil {
		return experts, nil
	}
	experts, retryErr := s.catalog.FindMany(ctx, f, query.OrderNone, 0, 0)
	if retryErr != nil {
		return nil, fmt.Errorf("fetch candidates: %w", retryErr)
	}
	return experts, nil
}

// fetchPage loads one top-rated page plus the filtered total, retrying the
// page fetch once without the ordering clause. Double failure degrades to an
// empty page.
func (s *Service) fetchPage(ctx context.Context, f filter.Filter, limit, offset int) ([]expert.Profile, int) {
	experts, err := s.catalog.FindMany(ctx, f, query.OrderTopRated, limit, offset)
	if err != nil {
		experts, err = s.catalog.FindMany(ctx, f, query.OrderNone, limit, offset)
		if err != nil {
			s.logger.Warn("page fetch failed twice, returning empty page", zap.Error(err))
			return nil, 0
		}
	}

	total, err := s.catalog.Count(ctx, f)
	if err != nil {
		total = len(experts)
	}
	return experts, total
}

// sortResults orders results by the requested sort mode. Distance carries no
// geo signal and ranks like best match.
func sortResults(results []match.RankedExpert, m mode.Mode) {
	sort.SliceStable(results, func(i, j int) bool {
		switch m {
		case mode.Rating:
			return results[i].Expert.RatingOrZero() > results[j].Expert.RatingOrZero()
		case mode.Experience:
			return results[i].Expert.ExperienceOrZero() > results[j].Expert.ExperienceOrZero()
		default:
			return results[i].Match.Score > results[j].Match.Score
		}
	})
}

func paginate(results []match.RankedExpert, offset, limit int) []match.RankedExpert {
	if offset >= len(results) {
		return nil
	}
	results = results[offset:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (s *Service) respond(results []match.RankedExpert, total int, start time.Time) Response {
	if results == nil {
		results = []match.RankedExpert{}
	}
	return Response{
		Results: results,
		Total:   total,
		TookMs:  time.Since(start).Milliseconds(),
	}
}

// logSearch appends the analytics entry. Best-effort: a failed write is
// logged and swallowed.
func (s *Service) logSearch(ctx context.Context, q query.Query, results int, tookMs int64) {
	entry := searchlog.Entry{
		Query:   q.LogText(),
		Filter:  q.Filter(),
		Results: results,
		TookMs:  tookMs,
		At:      time.Now().UTC(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Warn("search log append failed", zap.Error(err))
	}
}
