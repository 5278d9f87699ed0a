// Package postgres implements bar storage on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"

	"forex-bar-lab/internal/domain"
	"forex-bar-lab/internal/storage"
)

// BarStore implements storage.BarStore using PostgreSQL.
type BarStore struct {
	pool *Pool
}

// NewBarStore creates a new BarStore.
func NewBarStore(pool *Pool) *BarStore {
	return &BarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

const upsertQuery = `
	INSERT INTO forex_bars (
		symbol, "datetime", open, high, low, close,
		pip_hl, pip_oc, confidence_score, confidence_tag
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (symbol, "datetime") DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low  = EXCLUDED.low,
		close = EXCLUDED.close,
		pip_hl = EXCLUDED.pip_hl,
		pip_oc = EXCLUDED.pip_oc,
		confidence_score = EXCLUDED.confidence_score,
		confidence_tag = EXCLUDED.confidence_tag
`

// UpsertBulk writes all bars in a single transaction. Either every row is
// committed or none are: a failed batch never leaves a partial fetch cycle
// behind. Existing (symbol, datetime) rows have all value columns
// overwritten. Returns the number of rows written.
func (s *BarStore) UpsertBulk(ctx context.Context, bars []*domain.EnrichedBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	for _, b := range bars {
		if b == nil {
			return 0, storage.ErrInvalidInput
		}
		if err := b.Validate(); err != nil {
			return 0, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, storage.NewError("upsert bars", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%s'", statementTimeout)); err != nil {
		return 0, storage.NewError("upsert bars", fmt.Errorf("set statement timeout: %w", err))
	}

	for _, b := range bars {
		_, err := tx.Exec(ctx, upsertQuery,
			b.Symbol,
			b.Datetime,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.PipHL,
			b.PipOC,
			b.ConfidenceScore,
			b.ConfidenceTag,
		)
		if err != nil {
			return 0, storage.NewError("upsert bars", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storage.NewError("upsert bars", fmt.Errorf("commit tx: %w", err))
	}

	return len(bars), nil
}
