package postgres

import (
	"context"
	"fmt"

	"forex-bar-lab/internal/storage"
	"forex-bar-lab/internal/storage/migrations"
)

// Schema implements storage.SchemaManager using PostgreSQL.
type Schema struct {
	pool *Pool
}

// NewSchema creates a new Schema manager.
func NewSchema(pool *Pool) *Schema {
	return &Schema{pool: pool}
}

// Compile-time interface check.
var _ storage.SchemaManager = (*Schema)(nil)

// EnsureSchema applies the embedded DDL in one transaction. The DDL is
// idempotent, so calling this on every run is a no-op once the table and
// its (symbol, datetime) uniqueness constraint exist. Each statement runs
// under a statement timeout; hitting it fails the run.
func (s *Schema) EnsureSchema(ctx context.Context) error {
	stmts, err := migrations.PostgresStatements()
	if err != nil {
		return storage.NewError("load schema", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.NewError("ensure schema", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%s'", statementTimeout)); err != nil {
		return storage.NewError("ensure schema", fmt.Errorf("set statement timeout: %w", err))
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return storage.NewError("ensure schema", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.NewError("ensure schema", fmt.Errorf("commit tx: %w", err))
	}

	return nil
}
