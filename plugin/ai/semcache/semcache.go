// Package semcache is the semantic cache tier: entries are keyed by
// embedding vectors and looked up by nearest-neighbor distance instead of
// exact keys. Categories partition the space so a role-match entry can
// never answer a job-search query, no matter how close the vectors are.
package semcache

import (
	"context"
	"encoding/json"
)

// Categories partition the semantic space. Lookups only ever consider
// entries in the same category.
const (
	CategoryRoleMatch  = "role_match"
	CategoryJobSearch  = "job_search"
	CategoryExtraction = "extraction"
)

// SemanticCache is a vector-keyed payload cache. Distance is cosine: 0 is
// identical, and a lookup hits only when the nearest entry's distance is
// strictly below the caller's threshold.
type SemanticCache interface {
	// Lookup returns the payload of the nearest live entry in the category
	// when its distance is below threshold. ok is false on a miss.
	Lookup(ctx context.Context, vector []float32, category string, threshold float64) (payload json.RawMessage, ok bool, err error)

	// Store writes an entry for the query text. The entry ID derives from
	// category and text, so re-storing the same query overwrites in place
	// rather than accumulating duplicates.
	Store(ctx context.Context, queryText string, vector []float32, payload json.RawMessage, category string) error

	// Invalidate removes every entry whose query text contains term,
	// case-insensitively, across all categories. Returns the removal count.
	Invalidate(ctx context.Context, term string) (int64, error)

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) (int64, error)
}
