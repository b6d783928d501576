// Package database owns the Postgres store behind the editable denylist.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/wikifeeds-api/internal/config"
)

// migrationsTable keeps the denylist schema version apart from other
// schemas sharing the database
const migrationsTable = "most_read_denylist_migrations"

const connectTimeout = 5 * time.Second

// DenylistStore is the Postgres connection holding most_read_denylist
type DenylistStore struct {
	*sql.DB
	log zerolog.Logger
}

// OpenDenylistStore connects to Postgres and brings the denylist schema up to
// date with the migrations under migrationsPath. The connection is closed if
// either step fails.
func OpenDenylistStore(ctx context.Context, cfg *config.DatabaseConfig, migrationsPath string, log zerolog.Logger) (*DenylistStore, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("denylist store: open %s/%s: %w", cfg.Host, cfg.Name, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("denylist store: unreachable at %s/%s: %w", cfg.Host, cfg.Name, err)
	}

	store := &DenylistStore{
		DB:  db,
		log: log.With().Str("component", "denylist_store").Str("database", cfg.Name).Logger(),
	}

	version, err := store.migrate(migrationsPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	store.log.Info().
		Str("host", cfg.Host).
		Uint("schema_version", version).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Denylist store ready")

	return store, nil
}

// migrate applies pending denylist migrations and returns the schema version
func (s *DenylistStore) migrate(migrationsPath string) (uint, error) {
	driver, err := postgres.WithInstance(s.DB, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return 0, fmt.Errorf("denylist store: migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return 0, fmt.Errorf("denylist store: migrations at %s: %w", migrationsPath, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("denylist store: apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("denylist store: read schema version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("denylist store: schema version %d is dirty", version)
	}
	return version, nil
}

// HealthCheck reports whether the denylist store answers a ping
func (s *DenylistStore) HealthCheck(ctx context.Context) error {
	if err := s.PingContext(ctx); err != nil {
		return fmt.Errorf("denylist store: %w", err)
	}
	return nil
}
