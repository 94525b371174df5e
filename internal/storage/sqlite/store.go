package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/station"
	"github.com/louisbranch/galley/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/galley/internal/storage/integrity"
	"github.com/louisbranch/galley/internal/storage/sqlite/migrations"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store provides a SQLite-backed journal, checkpoint, and snapshot store.
type Store struct {
	sqlDB    *sql.DB
	keyring  *integrity.Keyring
	events   *event.Registry
	stations *station.Registry
}

// Option configures optional store behavior.
type Option func(*Store)

// WithStationRegistry wires station modules so snapshot state can rehydrate
// station slices into their module-defined types.
func WithStationRegistry(registry *station.Registry) Option {
	return func(s *Store) {
		s.stations = registry
	}
}

// Open opens a SQLite journal store at the provided path.
//
// The keyring and event registry are wired here so every appended event is
// validated, hashed, and signed in one place.
func Open(path string, keyring *integrity.Keyring, registry *event.Registry, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if keyring == nil {
		return nil, fmt.Errorf("event integrity keyring is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("event registry is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.JournalFS, "journal"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store := &Store{
		sqlDB:   sqlDB,
		keyring: keyring,
		events:  registry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Close closes the underlying SQLite database.
//
// Close is intentionally nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
