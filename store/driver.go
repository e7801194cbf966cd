package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned by drivers for capabilities their engine does
// not provide (vector search and semantic-cache persistence on sqlite).
// Callers fall back to text search or the in-memory semantic index.
var ErrUnsupported = errors.New("operation not supported by this driver")

// Driver is the interface a store database driver implements.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate applies the schema (idempotent).
	Migrate(ctx context.Context) error

	// Role catalog.
	UpsertRole(ctx context.Context, role *Role) error
	MatchRoleBySkills(ctx context.Context, skills []string) (*RoleMatch, error)

	// Job listings.
	CreateJobListing(ctx context.Context, create *JobListing) (*JobListing, error)
	UpdateJobListingEmbedding(ctx context.Context, id int32, embedding []float32) error
	ListJobListings(ctx context.Context, find *FindJobListing) ([]*JobListing, error)
	DeleteJobListing(ctx context.Context, id int32) error
	// SearchJobListingsByVector returns up to find.CandidateLimit listings
	// ordered by cosine distance to find.Vector.
	SearchJobListingsByVector(ctx context.Context, find *VectorJobSearch) ([]*JobListingResult, error)
	// SearchJobListingsByText performs case-insensitive substring filtering.
	SearchJobListingsByText(ctx context.Context, find *TextJobSearch) ([]*JobListingResult, error)

	// Semantic cache persistence.
	UpsertSemanticCacheEntry(ctx context.Context, entry *SemanticCacheEntry) error
	NearestSemanticCacheEntry(ctx context.Context, find *NearestSemanticEntry) (*SemanticMatch, error)
	DeleteSemanticCacheEntriesByTerm(ctx context.Context, term string) (int64, error)
	DeleteExpiredSemanticCacheEntries(ctx context.Context, now int64) (int64, error)

	// Conversation persistence.
	UpsertConversation(ctx context.Context, upsert *Conversation) (*Conversation, error)
	GetConversation(ctx context.Context, uid string) (*Conversation, error)
}
