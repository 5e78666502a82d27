// Package semantic is the HTTP client for the external semantic ranking
// backend.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/expertmatch/internal/domain"
	"github.com/kailas-cloud/expertmatch/internal/metrics"
)

// Client talks to the semantic backend over its JSON API. All failures are
// wrapped with domain.ErrSemanticUnavailable so the ranking pipeline can
// degrade instead of surfacing transport errors.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the semantic backend settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a semantic backend client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

type searchRequest struct {
	Query        string   `json:"query"`
	CandidateIDs []string `json:"candidateIds,omitempty"`
}

type searchResponse struct {
	Results []resultDTO `json:"results"`
}

// resultDTO tolerates the score field variants the backend has shipped over
// time: semScore in [0,1], score in [0,1], or finalScore in [0,100].
type resultDTO struct {
	ID                 string            `json:"id"`
	SemScore           *float64          `json:"semScore"`
	Score              *float64          `json:"score"`
	FinalScore         *float64          `json:"finalScore"`
	TopTerms           []json.RawMessage `json:"topTerms"`
	AllKeywordsMatched bool              `json:"allKeywordsMatched"`
}

// Search scores the candidate set against the query. Candidate order in the
// response is backend-defined; callers index results by ID.
func (c *Client) Search(ctx context.Context, query string, candidateIDs []string) ([]domain.SemanticResult, error) {
	body, err := json.Marshal(searchRequest{Query: query, CandidateIDs: candidateIDs})
	if err != nil {
		return nil, fmt.Errorf("marshal semantic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build semantic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.SemanticRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("semantic search: %v: %w", err, domain.ErrSemanticUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.SemanticRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("semantic search status %d: %w", resp.StatusCode, domain.ErrSemanticUnavailable)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.SemanticRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode semantic response: %v: %w", err, domain.ErrSemanticUnavailable)
	}

	metrics.SemanticRequestsTotal.WithLabelValues("success").Inc()
	if c.logger != nil {
		c.logger.Debug("semantic search done",
			zap.Int("candidates", len(candidateIDs)),
			zap.Int("results", len(parsed.Results)),
			zap.Duration("duration", time.Since(start)))
	}

	results := make([]domain.SemanticResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, domain.SemanticResult{
			ID:                 r.ID,
			Score:              r.normalizedScore(),
			TopTerms:           parseTopTerms(r.TopTerms),
			AllKeywordsMatched: r.AllKeywordsMatched,
		})
	}
	return results, nil
}

// Healthy reports whether the backend is up and has its index loaded.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var parsed struct {
		Status string `json:"status"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || json.Unmarshal(raw, &parsed) != nil {
		return false
	}
	return parsed.Status == "ok"
}

// normalizedScore resolves the score variants in precedence order.
func (r *resultDTO) normalizedScore() float64 {
	switch {
	case r.SemScore != nil:
		return *r.SemScore
	case r.Score != nil:
		return *r.Score
	case r.FinalScore != nil:
		return *r.FinalScore / 100
	default:
		return 0
	}
}

// formattedTerm matches the backend's pre-formatted "term (0.42)" strings.
var formattedTerm = regexp.MustCompile(`^(.*) \(([0-9.]+)\)$`)

// parseTopTerms decodes a topTerms entry in either wire form: an object
// {"term": ..., "weight": ...} or a pre-formatted string "term (0.42)".
func parseTopTerms(raw []json.RawMessage) []domain.TermWeight {
	if len(raw) == 0 {
		return nil
	}
	terms := make([]domain.TermWeight, 0, len(raw))
	for _, item := range raw {
		var obj struct {
			Term   string  `json:"term"`
			Weight float64 `json:"weight"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Term != "" {
			terms = append(terms, domain.TermWeight{Term: obj.Term, Weight: obj.Weight})
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil || s == "" {
			continue
		}
		if m := formattedTerm.FindStringSubmatch(s); m != nil {
			w, _ := strconv.ParseFloat(m[2], 64)
			terms = append(terms, domain.TermWeight{Term: m[1], Weight: w})
			continue
		}
		terms = append(terms, domain.TermWeight{Term: s})
	}
	return terms
}
