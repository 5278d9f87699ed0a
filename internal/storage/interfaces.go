package storage

import (
	"context"

	"forex-bar-lab/internal/domain"
)

// BarStore persists enriched bars keyed by (symbol, datetime).
type BarStore interface {
	// UpsertBulk writes all bars in a single atomic batch and returns the
	// number of rows written. A row colliding with an existing
	// (symbol, datetime) key has every value column overwritten, so
	// re-running the pipeline over overlapping windows converges to the
	// same stored state. An empty input is a no-op returning 0.
	UpsertBulk(ctx context.Context, bars []*domain.EnrichedBar) (int, error)
}

// SchemaManager bootstraps the destination schema. Safe to call on every
// run; creation is a no-op when the table and constraint already exist.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}
