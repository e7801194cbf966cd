package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// SemanticCacheEntry is a persisted semantic-cache record. The ID is derived
// from (category, query text) so identical repeated queries overwrite one
// row instead of growing without bound.
type SemanticCacheEntry struct {
	ID        string
	Category  string
	QueryText string
	Embedding []float32
	Payload   []byte
	CreatedTs int64
	ExpiresTs int64
}

// SemanticEntryID computes the content-derived identifier for an entry.
func SemanticEntryID(category, queryText string) string {
	digest := sha256.Sum256([]byte(category + "|" + queryText))
	return hex.EncodeToString(digest[:])
}

// NearestSemanticEntry requests the k=1 nearest live entry within a
// category. The category filter is applied before distance ranking.
type NearestSemanticEntry struct {
	Vector   []float32
	Category string
	// Now excludes entries whose expiry has passed.
	Now int64
}

// SemanticMatch is the nearest entry and its cosine distance (0 = identical).
type SemanticMatch struct {
	Payload   []byte
	QueryText string
	Distance  float64
}
