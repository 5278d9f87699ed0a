// Package memory provides an in-memory BarStore for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"forex-bar-lab/internal/domain"
	"forex-bar-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore with the
// same upsert semantics as the Postgres table: one row per
// (symbol, datetime), collisions overwrite every value column.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EnrichedBar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]*domain.EnrichedBar),
	}
}

// Compile-time interface checks.
var (
	_ storage.BarStore      = (*BarStore)(nil)
	_ storage.SchemaManager = (*BarStore)(nil)
)

// barKey generates the unique key for a bar.
func barKey(symbol string, unixSec int64) string {
	return fmt.Sprintf("%s|%d", symbol, unixSec)
}

// EnsureSchema is a no-op: the map needs no bootstrap.
func (s *BarStore) EnsureSchema(_ context.Context) error {
	return nil
}

// UpsertBulk stores all bars, overwriting any existing (symbol, datetime)
// entries. Returns the number of bars written.
func (s *BarStore) UpsertBulk(_ context.Context, bars []*domain.EnrichedBar) (int, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range bars {
		barCopy := *b
		s.data[barKey(b.Symbol, b.Datetime.Unix())] = &barCopy
	}

	return len(bars), nil
}

// Len reports the number of stored rows.
func (s *BarStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
func (s *BarStore) GetBySymbol(symbol string) []*domain.EnrichedBar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EnrichedBar
	for _, b := range s.data {
		if b.Symbol == symbol {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Datetime.Before(result[j].Datetime)
	})

	return result
}
