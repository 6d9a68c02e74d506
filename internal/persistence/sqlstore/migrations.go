package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

func (d Dialect) gooseDialect() goose.Dialect {
	if d == DialectPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

func newMigrationProvider(pool *ConnectionPool) (*goose.Provider, error) {
	sub, err := fs.Sub(migrationFS, "migrations/"+string(pool.dialect))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: migrations for %s: %w", pool.dialect, err)
	}
	provider, err := goose.NewProvider(pool.dialect.gooseDialect(), pool.db, sub)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: migration provider: %w", err)
	}
	return provider, nil
}

// MigrateUp applies every pending migration and returns the resulting schema version.
func MigrateUp(ctx context.Context, pool *ConnectionPool) (int64, error) {
	provider, err := newMigrationProvider(pool)
	if err != nil {
		return 0, err
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("sqlstore: migrate up: %w", err)
	}
	return provider.GetDBVersion(ctx)
}

// SchemaVersion reports the currently applied schema version.
func SchemaVersion(ctx context.Context, pool *ConnectionPool) (int64, error) {
	provider, err := newMigrationProvider(pool)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
