// Package postgres implements the store driver on PostgreSQL. This is the
// production driver: vector search and semantic-cache persistence require
// the pgvector extension, and the job-listing change feed is driven by
// LISTEN/NOTIFY triggers installed by the migration.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/internal/profile"
	"github.com/careerscout/careerscout/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the PostgreSQL connection and verifies it.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

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

// ChangeFeedChannel is the NOTIFY channel the job-listing triggers publish
// to; the change watcher listens on it.
const ChangeFeedChannel = "job_listing_changes"

// Migrate applies the schema and the change-feed triggers. Statements are
// idempotent so repeated runs are safe.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS role (
			name TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS role_skill (
			role_name TEXT NOT NULL REFERENCES role(name) ON DELETE CASCADE,
			skill TEXT NOT NULL,
			PRIMARY KEY (role_name, skill)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS job_listing (
			id SERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			company TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			experience_level TEXT NOT NULL DEFAULT '',
			salary_range TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			embedding vector(%d)
		)`, d.profile.EmbeddingDim),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS semantic_cache (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			query_text TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			payload JSONB NOT NULL,
			created_ts BIGINT NOT NULL,
			expires_ts BIGINT NOT NULL
		)`, d.profile.EmbeddingDim),
		`CREATE INDEX IF NOT EXISTS idx_semantic_cache_category ON semantic_cache (category)`,
		`CREATE TABLE IF NOT EXISTS conversation (
			uid TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL
		)`,
		// The delete branch serializes OLD so subscribers can recover the
		// pre-deletion document.
		`CREATE OR REPLACE FUNCTION notify_job_listing_change() RETURNS trigger AS $$
		DECLARE payload JSON;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				payload = json_build_object('op', 'delete', 'title', OLD.title);
			ELSE
				payload = json_build_object('op', lower(TG_OP), 'title', NEW.title);
			END IF;
			PERFORM pg_notify('` + ChangeFeedChannel + `', payload::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS job_listing_change ON job_listing`,
		`CREATE TRIGGER job_listing_change
			AFTER INSERT OR UPDATE OR DELETE ON job_listing
			FOR EACH ROW EXECUTE FUNCTION notify_job_listing_change()`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration statement failed: %.60s", stmt)
		}
	}
	return nil
}

var _ store.Driver = (*DB)(nil)
