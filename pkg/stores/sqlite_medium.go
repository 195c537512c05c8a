package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ Medium = (*SQLiteMedium)(nil)

// SQLiteMedium stores each collection as one row of the collections table.
type SQLiteMedium struct {
	db       *sql.DB
	path     string
	lifetime time.Duration
}

// SQLiteConfig holds SQLite medium configuration
type SQLiteConfig struct {
	Path string

	// ConnMaxLifetime recycles the database connection after this long. Zero
	// keeps it forever. It is ignored for ":memory:", whose data lives only
	// as long as its connection.
	ConnMaxLifetime time.Duration
}

// NewSQLiteMedium creates a new SQLite medium. Init must be called before use.
func NewSQLiteMedium(cfg SQLiteConfig) (*SQLiteMedium, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	m := &SQLiteMedium{path: cfg.Path, lifetime: cfg.ConnMaxLifetime}
	if cfg.Path == ":memory:" {
		m.lifetime = 0
	}
	return m, nil
}

// Init opens the database, enables WAL mode and applies migrations.
func (s *SQLiteMedium) Init(ctx context.Context) error {
	dsn := s.path
	if s.path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", s.path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: writes are serialized and an in-memory database is
	// shared by every caller.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(s.lifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteMedium) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Get returns the serialized collection stored under key.
func (s *SQLiteMedium) Get(ctx context.Context, key string) (string, bool, error) {
	if s.db == nil {
		return "", false, fmt.Errorf("database not initialized")
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get collection %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the serialized collection stored under key.
func (s *SQLiteMedium) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO collections (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save collection %s: %w", key, err)
	}
	return nil
}

// Delete removes the collection stored under key.
func (s *SQLiteMedium) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteMedium) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteMedium) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}
