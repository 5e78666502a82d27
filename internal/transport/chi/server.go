// Package chi is the HTTP API surface of the expert matching service.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/expertmatch/internal/domain"
	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/match"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/query"
	"github.com/kailas-cloud/expertmatch/internal/domain/searchlog"
	healthuc "github.com/kailas-cloud/expertmatch/internal/usecase/health"
	"github.com/kailas-cloud/expertmatch/internal/usecase/ingest"
	"github.com/kailas-cloud/expertmatch/internal/usecase/ranking"
)

// anonClient is the throttle key when no forwarded-for header is present.
const anonClient = "anon"

// maxUploadBytes bounds admin CSV uploads.
const maxUploadBytes = 32 << 20

// Error response codes.
const (
	codeBadRequest   = "bad_request"
	codeUnauthorized = "unauthorized"
	codeNotFound     = "not_found"
	codeInternal     = "internal_error"
)

// Ranker runs the ranking pipeline for one request.
type Ranker interface {
	Rank(ctx context.Context, q query.Query, clientID string) (ranking.Response, error)
}

// ExpertReader reads single profiles and filtered counts from the catalog.
type ExpertReader interface {
	Get(ctx context.Context, id string) (expert.Profile, error)
	Count(ctx context.Context, f filter.Filter) (int, error)
}

// CSVImporter ingests catalog CSV uploads.
type CSVImporter interface {
	ImportCSV(ctx context.Context, r io.Reader) (ingest.Report, error)
}

// SearchLogReader reads retained search log entries for admin stats.
type SearchLogReader interface {
	Count(ctx context.Context) (int, error)
	Recent(ctx context.Context, n int) ([]searchlog.Entry, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	ranker   Ranker
	experts  ExpertReader
	importer CSVImporter
	searches SearchLogReader
	health   *healthuc.Service
	apiKeys  []string
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ranker Ranker,
	experts ExpertReader,
	importer CSVImporter,
	searches SearchLogReader,
	health *healthuc.Service,
	apiKeys []string,
	logger *zap.Logger,
) *Server {
	return &Server{
		ranker:   ranker,
		experts:  experts,
		importer: importer,
		searches: searches,
		health:   health,
		apiKeys:  apiKeys,
		logger:   logger,
	}
}

// Routes registers all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/experts/{id}", s.GetExpert)
		r.Route("/admin", func(r chi.Router) {
			r.Use(BearerAuthMiddleware(s.apiKeys))
			r.Get("/stats", s.AdminStats)
			r.Post("/upload", s.AdminUpload)
		})
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// --- Wire types ---

type searchFiltersBody struct {
	State           string   `json:"state"`
	City            string   `json:"city"`
	Specialties     []string `json:"specialties"`
	MinRating       float64  `json:"minRating"`
	YearsExperience int      `json:"yearsExperience"`
}

type searchBody struct {
	Query   string             `json:"query"`
	Filters *searchFiltersBody `json:"filters"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	Sort    string             `json:"sort"`
}

type matchDTO struct {
	Score   float64  `json:"score"`
	Explain []string `json:"explain"`
	Color   string   `json:"color"`
}

type expertDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Company         string   `json:"company,omitempty"`
	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	Description     string   `json:"description,omitempty"`
	Specialties     []string `json:"specialties"`
	Rating          *float64 `json:"rating"`
	YearsExperience *int     `json:"yearsExperience"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Website         string   `json:"website,omitempty"`
	ThumbnailURL    string   `json:"thumbnailUrl,omitempty"`
}

type searchResultDTO struct {
	expertDTO
	Match matchDTO `json:"match"`
}

type searchResponseDTO struct {
	Results []searchResultDTO `json:"results"`
	Total   int               `json:"total"`
	TookMs  int64             `json:"tookMs"`
}

// Search handles POST /api/search. A malformed body is replaced with the
// safe default (empty query, default pagination) rather than rejected.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		body = searchBody{}
	}

	q := query.New(body.Query, filtersFromBody(body.Filters), body.Limit, body.Offset, mode.Parse(body.Sort))

	resp, err := s.ranker.Rank(r.Context(), q, clientID(r))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results := make([]searchResultDTO, len(resp.Results))
	for i := range resp.Results {
		results[i] = searchResultToDTO(&resp.Results[i])
	}
	writeJSON(w, http.StatusOK, searchResponseDTO{
		Results: results,
		Total:   resp.Total,
		TookMs:  resp.TookMs,
	})
}

// GetExpert handles GET /api/experts/{id}.
func (s *Server) GetExpert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "expert id is required")
		return
	}

	p, err := s.experts.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expertToDTO(&p))
}

// recentSearchLimit bounds the search log sample in admin stats.
const recentSearchLimit = 20

type searchLogDTO struct {
	Query   string    `json:"query"`
	Results int       `json:"results"`
	TookMs  int64     `json:"tookMs"`
	At      time.Time `json:"at"`
}

type adminStatsDTO struct {
	Experts        int            `json:"experts"`
	Searches       int            `json:"searches"`
	RecentSearches []searchLogDTO `json:"recentSearches"`
}

// AdminStats handles GET /api/admin/stats.
func (s *Server) AdminStats(w http.ResponseWriter, r *http.Request) {
	experts, err := s.experts.Count(r.Context(), filter.Filter{})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	searches, err := s.searches.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	recent, err := s.searches.Recent(r.Context(), recentSearchLimit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	logs := make([]searchLogDTO, len(recent))
	for i, e := range recent {
		logs[i] = searchLogDTO{
			Query:   e.Query,
			Results: e.Results,
			TookMs:  e.TookMs,
			At:      e.At,
		}
	}
	writeJSON(w, http.StatusOK, adminStatsDTO{
		Experts:        experts,
		Searches:       searches,
		RecentSearches: logs,
	})
}

// AdminUpload handles POST /api/admin/upload (multipart CSV).
func (s *Server) AdminUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "missing file")
		return
	}
	defer file.Close()

	report, err := s.importer.ImportCSV(r.Context(), file)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"created": report.Created,
		"updated": report.Updated,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// clientID extracts the throttle key: the first forwarded-for entry, else a
// constant anonymous key.
func clientID(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return anonClient
}

func filtersFromBody(f *searchFiltersBody) filter.Filter {
	if f == nil {
		return filter.Filter{}
	}
	return filter.Filter{
		State:              f.State,
		City:               f.City,
		Specialties:        f.Specialties,
		MinRating:          f.MinRating,
		MinYearsExperience: f.YearsExperience,
	}
}

func expertToDTO(p *expert.Profile) expertDTO {
	specialties := p.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	return expertDTO{
		ID:              p.ID,
		Name:            p.Name,
		Company:         p.Company,
		City:            p.City,
		State:           p.State,
		Description:     p.Description,
		Specialties:     specialties,
		Rating:          p.Rating,
		YearsExperience: p.YearsExperience,
		Email:           p.Email,
		Phone:           p.Phone,
		Website:         p.Website,
		ThumbnailURL:    p.ThumbnailURL,
	}
}

func searchResultToDTO(r *match.RankedExpert) searchResultDTO {
	explain := r.Match.Explain
	if explain == nil {
		explain = []string{}
	}
	return searchResultDTO{
		expertDTO: expertToDTO(&r.Expert),
		Match: matchDTO{
			Score:   r.Match.Score,
			Explain: explain,
			Color:   match.ColorForScore(r.Match.Score),
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrExpertNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, domain.ErrExpertNotFound.Error())
	case errors.Is(err, domain.ErrInvalidCSV):
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
