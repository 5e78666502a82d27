package ingest

import (
	"context"

	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/query"
)

// Catalog defines the profile-store contract for ingestion.
type Catalog interface {
	FindMany(
		ctx context.Context, f filter.Filter, order query.Order, limit, offset int,
	) ([]expert.Profile, error)

	UpsertMany(ctx context.Context, profiles []expert.Profile) error
}
