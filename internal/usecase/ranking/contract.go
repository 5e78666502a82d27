package ranking

import (
	"context"

	"github.com/kailas-cloud/expertmatch/internal/domain"
	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/query"
	"github.com/kailas-cloud/expertmatch/internal/domain/searchlog"
)

// Catalog defines the profile-store contract for ranking.
type Catalog interface {
	FindMany(
		ctx context.Context, f filter.Filter, order query.Order, limit, offset int,
	) ([]expert.Profile, error)

	Count(ctx context.Context, f filter.Filter) (int, error)
}

// SemanticSearcher scores candidates against the external semantic backend.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, candidateIDs []string) ([]domain.SemanticResult, error)
	Healthy(ctx context.Context) bool
}

// LogSink appends search analytics entries. Writes are best-effort.
type LogSink interface {
	Append(ctx context.Context, e searchlog.Entry) error
}

// Limiter decides whether a client may run the full hybrid pipeline.
type Limiter interface {
	Allow(clientID string) bool
}
