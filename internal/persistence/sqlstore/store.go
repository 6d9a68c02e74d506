// Package sqlstore implements persistence.Store on top of database/sql,
// speaking either SQLite (modernc.org/sqlite) or PostgreSQL (pgx).
package sqlstore

import (
	"context"
	"fmt"

	"github.com/example/app-bouncer/internal/persistence"
)

// Store bundles the SQL repositories behind persistence.Store.
type Store struct {
	*UserRepository
	*PreferenceRepository
	*LogRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database described by cfg. Call Migrate before use.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		UserRepository:       NewUserRepository(pool),
		PreferenceRepository: NewPreferenceRepository(pool),
		LogRepository:        NewLogRepository(pool),
		pool:                 pool,
	}, nil
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := MigrateUp(ctx, s.pool); err != nil {
		return fmt.Errorf("sqlstore: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Pool exposes the connection pool for administrative commands.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
