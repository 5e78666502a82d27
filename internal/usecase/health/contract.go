package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SemanticChecker checks semantic backend availability.
type SemanticChecker interface {
	Healthy(ctx context.Context) bool
}
