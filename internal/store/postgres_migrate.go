package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// MigrationResult reports one migration file's outcome.
type MigrationResult struct {
	File    string
	Applied bool // false when it was already recorded and skipped
}

// Migrate runs pending migrations from the embedded migrations/postgres
// directory. The migrations table records applied files; each file and its
// record insert share one transaction.
func (p *Postgres) Migrate(ctx context.Context) ([]MigrationResult, error) {
	files, err := fs.Glob(postgresMigrations, "migrations/postgres/*.sql")
	if err != nil || len(files) == 0 {
		return nil, fmt.Errorf("no migration files embedded")
	}
	sort.Strings(files)

	// The table may not exist yet on a fresh database.
	applied := make(map[string]bool)
	rows, err := p.pool.Query(ctx, "SELECT migration FROM migrations")
	if err == nil {
		names, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err == nil {
			for _, n := range names {
				applied[n] = true
			}
		}
	}

	var results []MigrationResult
	for _, f := range files {
		filename := path.Base(f)
		if applied[filename] {
			results = append(results, MigrationResult{File: filename})
			continue
		}

		content, err := postgresMigrations.ReadFile(f)
		if err != nil {
			return results, fmt.Errorf("read %s: %w", filename, err)
		}

		tx, err := p.pool.Begin(ctx)
		if err != nil {
			return results, fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			tx.Rollback(ctx)
			return results, fmt.Errorf("run %s: %w", filename, err)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO migrations (migration, description) VALUES (@migration, @description)",
			pgx.NamedArgs{"migration": filename, "description": descriptionFromFilename(filename)}); err != nil {
			tx.Rollback(ctx)
			return results, fmt.Errorf("record %s: %w", filename, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return results, fmt.Errorf("commit %s: %w", filename, err)
		}
		results = append(results, MigrationResult{File: filename, Applied: true})
	}
	return results, nil
}

var migrationPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{3}-`)

// descriptionFromFilename strips the YYYY-MM-DD-NNN- prefix and .sql suffix.
func descriptionFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, ".sql")
	name = migrationPrefix.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "-", " ")
}
