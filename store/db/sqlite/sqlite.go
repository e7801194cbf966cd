// Package sqlite implements the store driver on SQLite for local
// development and tests. It has no vector support: vector search and the
// semantic cache report store.ErrUnsupported, which callers treat as a
// degraded-but-working tier.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/careerscout/careerscout/internal/profile"
	"github.com/careerscout/careerscout/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database. The DSN is a file path or ":memory:".
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("sqlite", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS role (
			name TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS role_skill (
			role_name TEXT NOT NULL REFERENCES role(name) ON DELETE CASCADE,
			skill TEXT NOT NULL,
			PRIMARY KEY (role_name, skill)
		)`,
		`CREATE TABLE IF NOT EXISTS job_listing (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			company TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			experience_level TEXT NOT NULL DEFAULT '',
			salary_range TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS conversation (
			uid TEXT PRIMARY KEY,
			state BLOB NOT NULL,
			created_ts INTEGER NOT NULL,
			updated_ts INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration statement failed: %.60s", stmt)
		}
	}
	return nil
}

func (d *DB) UpdateJobListingEmbedding(ctx context.Context, id int32, embedding []float32) error {
	return store.ErrUnsupported
}

func (d *DB) SearchJobListingsByVector(ctx context.Context, search *store.VectorJobSearch) ([]*store.JobListingResult, error) {
	return nil, store.ErrUnsupported
}

func (d *DB) UpsertSemanticCacheEntry(ctx context.Context, entry *store.SemanticCacheEntry) error {
	return store.ErrUnsupported
}

func (d *DB) NearestSemanticCacheEntry(ctx context.Context, find *store.NearestSemanticEntry) (*store.SemanticMatch, error) {
	return nil, store.ErrUnsupported
}

func (d *DB) DeleteSemanticCacheEntriesByTerm(ctx context.Context, term string) (int64, error) {
	return 0, store.ErrUnsupported
}

func (d *DB) DeleteExpiredSemanticCacheEntries(ctx context.Context, now int64) (int64, error) {
	return 0, store.ErrUnsupported
}

var _ store.Driver = (*DB)(nil)
