package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/store"
)

func (d *DB) UpsertSemanticCacheEntry(ctx context.Context, entry *store.SemanticCacheEntry) error {
	if _, err := d.db.ExecContext(ctx, `
		INSERT INTO semantic_cache (id, category, query_text, embedding, payload, created_ts, expires_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			query_text = EXCLUDED.query_text,
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload,
			created_ts = EXCLUDED.created_ts,
			expires_ts = EXCLUDED.expires_ts`,
		entry.ID, entry.Category, entry.QueryText, pgvector.NewVector(entry.Embedding),
		[]byte(entry.Payload), entry.CreatedTs, entry.ExpiresTs,
	); err != nil {
		return errors.Wrap(err, "failed to upsert semantic cache entry")
	}
	return nil
}

// NearestSemanticCacheEntry returns the closest live entry in the category,
// or nil when the category is empty. Distance is cosine; the caller owns the
// threshold decision.
func (d *DB) NearestSemanticCacheEntry(ctx context.Context, find *store.NearestSemanticEntry) (*store.SemanticMatch, error) {
	match := &store.SemanticMatch{}
	var payload []byte
	err := d.db.QueryRowContext(ctx, `
		SELECT payload, query_text, embedding <=> $1 AS distance
		FROM semantic_cache
		WHERE category = $2 AND expires_ts > $3
		ORDER BY distance ASC
		LIMIT 1`,
		pgvector.NewVector(find.Vector), find.Category, find.Now,
	).Scan(&payload, &match.QueryText, &match.Distance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query nearest semantic cache entry")
	}
	match.Payload = payload
	return match, nil
}

// DeleteSemanticCacheEntriesByTerm removes every entry whose query text
// contains the term, case-insensitively.
func (d *DB) DeleteSemanticCacheEntriesByTerm(ctx context.Context, term string) (int64, error) {
	pattern := "%" + escapeLike(term) + "%"
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM semantic_cache WHERE query_text ILIKE $1 ESCAPE '\'`, pattern)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete semantic cache entries")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read rows affected")
	}
	return n, nil
}

func (d *DB) DeleteExpiredSemanticCacheEntries(ctx context.Context, now int64) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM semantic_cache WHERE expires_ts <= $1`, now)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired semantic cache entries")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read rows affected")
	}
	return n, nil
}

// escapeLike neutralizes LIKE metacharacters in user-derived terms.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
