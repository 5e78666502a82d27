package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/expertmatch/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(&Config{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zap.NewNop()})
	return c, srv
}

func TestSearch_ObjectTopTerms(t *testing.T) {
	var gotBody searchRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"results":[
			{"id":"a","semScore":0.91,"topTerms":[{"term":"sandstone","weight":0.42}],"allKeywordsMatched":true},
			{"id":"b","semScore":0.30}
		]}`))
	})

	got, err := c.Search(context.Background(), "sandstone mason", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotBody.Query != "sandstone mason" || len(gotBody.CandidateIDs) != 2 {
		t.Errorf("request body lost fields: %+v", gotBody)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Score != 0.91 || !got[0].AllKeywordsMatched {
		t.Errorf("result a: %+v", got[0])
	}
	if len(got[0].TopTerms) != 1 || got[0].TopTerms[0].Term != "sandstone" || got[0].TopTerms[0].Weight != 0.42 {
		t.Errorf("top terms: %+v", got[0].TopTerms)
	}
}

func TestSearch_StringTopTerms(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":"a","semScore":0.8,"topTerms":["mason (0.35)","stone"]}]}`))
	})

	got, err := c.Search(context.Background(), "mason", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	terms := got[0].TopTerms
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(terms))
	}
	if terms[0].Term != "mason" || terms[0].Weight != 0.35 {
		t.Errorf("formatted string not parsed: %+v", terms[0])
	}
	if terms[1].Term != "stone" || terms[1].Weight != 0 {
		t.Errorf("bare string not carried: %+v", terms[1])
	}
}

func TestSearch_ScorePrecedence(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"id":"a","semScore":0.9,"score":0.5,"finalScore":10},
			{"id":"b","score":0.5,"finalScore":10},
			{"id":"c","finalScore":80},
			{"id":"d"}
		]}`))
	})

	got, err := c.Search(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []float64{0.9, 0.5, 0.8, 0}
	for i, w := range want {
		if got[i].Score != w {
			t.Errorf("result %s: score %v, want %v", got[i].ID, got[i].Score, w)
		}
	}
}

func TestSearch_ServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), "q", nil)
	if !errors.Is(err, domain.ErrSemanticUnavailable) {
		t.Fatalf("expected ErrSemanticUnavailable, got %v", err)
	}
}

func TestSearch_Unreachable(t *testing.T) {
	c := NewClient(&Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond, Logger: zap.NewNop()})

	_, err := c.Search(context.Background(), "q", nil)
	if !errors.Is(err, domain.ErrSemanticUnavailable) {
		t.Fatalf("expected ErrSemanticUnavailable, got %v", err)
	}
}

func TestHealthy(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want bool
	}{
		{"ok", `{"status":"ok","indexLoaded":true}`, http.StatusOK, true},
		{"degraded status", `{"status":"down"}`, http.StatusOK, false},
		{"non-200", `{}`, http.StatusServiceUnavailable, false},
		{"garbage body", `nope`, http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			})
			if got := c.Healthy(context.Background()); got != tt.want {
				t.Errorf("Healthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthy_Unreachable(t *testing.T) {
	c := NewClient(&Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if c.Healthy(context.Background()) {
		t.Fatal("expected unhealthy when backend unreachable")
	}
}
