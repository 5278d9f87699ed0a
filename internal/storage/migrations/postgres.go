// Package migrations holds the embedded SQL schema for the pipeline's
// destination table.
package migrations

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// PostgresStatements returns the embedded SQL files' contents in lexical
// order. Statements are expected to be idempotent (CREATE ... IF NOT
// EXISTS) so they are safe to apply on every run.
func PostgresStatements() ([]string, error) {
	entries, err := fs.ReadDir(PostgresFS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("read embedded postgres migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var stmts []string
	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+file)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		stmts = append(stmts, string(data))
	}

	return stmts, nil
}
