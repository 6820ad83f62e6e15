package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/lunarphase/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore persists entries in a local SQLite database so a restarted
// process keeps its resolved phases
type SQLiteStore[V any] struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func NewSQLiteStore[V any](ctx context.Context, path string) (*SQLiteStore[V], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	migrator := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations"), "phase_cache_migrations", nil)
	if err := migrator.MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate phase cache schema: %w", err)
	}

	return &SQLiteStore[V]{db: db}, nil
}

func (s *SQLiteStore[V]) Get(ctx context.Context, key string) (Entry[V], bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM phase_cache WHERE cache_key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry[V]{}, false, nil
		}
		return Entry[V]{}, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	entry, err := decodeEntry[V](payload)
	if err != nil {
		return Entry[V]{}, false, fmt.Errorf("error decoding cache entry %q: %w", key, err)
	}
	return entry, true, nil
}

func (s *SQLiteStore[V]) Set(ctx context.Context, key string, entry Entry[V]) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("error encoding cache entry %q: %w", key, err)
	}

	query := `
		INSERT INTO phase_cache (cache_key, payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key)
		DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, payload, entry.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("cache update failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore[V]) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM phase_cache`); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	return nil
}

// Prune deletes entries created before cutoff and returns how many were removed
func (s *SQLiteStore[V]) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM phase_cache WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("cache prune failed: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore[V]) Close() error {
	return s.db.Close()
}
