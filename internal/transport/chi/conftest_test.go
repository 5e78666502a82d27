package chi

import (
	"context"
	"io"

	"github.com/kailas-cloud/expertmatch/internal/domain"
	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/query"
	"github.com/kailas-cloud/expertmatch/internal/domain/searchlog"
	"github.com/kailas-cloud/expertmatch/internal/usecase/ingest"
	"github.com/kailas-cloud/expertmatch/internal/usecase/ranking"
)

// --- Mocks ---

type mockRanker struct {
	resp         ranking.Response
	err          error
	lastQuery    query.Query
	lastClientID string
}

func (m *mockRanker) Rank(_ context.Context, q query.Query, clientID string) (ranking.Response, error) {
	m.lastQuery = q
	m.lastClientID = clientID
	if m.err != nil {
		return ranking.Response{}, m.err
	}
	return m.resp, nil
}

type mockExpertReader struct {
	profiles map[string]expert.Profile
	count    int
	countErr error
}

func (m *mockExpertReader) Get(_ context.Context, id string) (expert.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return expert.Profile{}, domain.ErrExpertNotFound
	}
	return p, nil
}

func (m *mockExpertReader) Count(_ context.Context, _ filter.Filter) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

type mockImporter struct {
	report   ingest.Report
	err      error
	received []byte
}

func (m *mockImporter) ImportCSV(_ context.Context, r io.Reader) (ingest.Report, error) {
	m.received, _ = io.ReadAll(r)
	if m.err != nil {
		return ingest.Report{}, m.err
	}
	return m.report, nil
}

type mockSearchLog struct {
	count   int
	entries []searchlog.Entry
	err     error
}

func (m *mockSearchLog) Count(_ context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

func (m *mockSearchLog) Recent(_ context.Context, n int) ([]searchlog.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.entries) {
		n = len(m.entries)
	}
	return m.entries[:n], nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }
