// Package store provides the data access layer: the role catalog, job
// listings (with vector search), semantic-cache persistence, and
// conversation state.
package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/internal/profile"
)

// Store wraps a Driver with the small amount of logic shared by all drivers.
type Store struct {
	driver  Driver
	profile *profile.Profile
}

// New creates a store on the given driver.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{driver: driver, profile: profile}
}

// GetDriver exposes the underlying driver.
func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// Close closes the underlying driver.
func (s *Store) Close() error {
	return s.driver.Close()
}

// UpsertRole stores a role and its skill set.
func (s *Store) UpsertRole(ctx context.Context, role *Role) error {
	if role.Name == "" {
		return errors.New("role name is required")
	}
	return s.driver.UpsertRole(ctx, role)
}

// MatchRoleBySkills returns the best-matching role for the skills, or nil
// when no role matches any of them.
func (s *Store) MatchRoleBySkills(ctx context.Context, skills []string) (*RoleMatch, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	return s.driver.MatchRoleBySkills(ctx, skills)
}

// CreateJobListing stores a listing.
func (s *Store) CreateJobListing(ctx context.Context, create *JobListing) (*JobListing, error) {
	return s.driver.CreateJobListing(ctx, create)
}

// UpdateJobListingEmbedding sets the embedding vector for a listing.
func (s *Store) UpdateJobListingEmbedding(ctx context.Context, id int32, embedding []float32) error {
	return s.driver.UpdateJobListingEmbedding(ctx, id, embedding)
}

// ListJobListings lists listings for maintenance operations.
func (s *Store) ListJobListings(ctx context.Context, find *FindJobListing) ([]*JobListing, error) {
	return s.driver.ListJobListings(ctx, find)
}

// SearchJobListingsByVector performs similarity search over listing
// embeddings with a bounded candidate count.
func (s *Store) SearchJobListingsByVector(ctx context.Context, find *VectorJobSearch) ([]*JobListingResult, error) {
	if find.CandidateLimit <= 0 {
		find.CandidateLimit = 100
	}
	return s.driver.SearchJobListingsByVector(ctx, find)
}

// SearchJobListingsByText performs case-insensitive substring filtering.
func (s *Store) SearchJobListingsByText(ctx context.Context, find *TextJobSearch) ([]*JobListingResult, error) {
	if find.Limit <= 0 {
		find.Limit = 5
	}
	return s.driver.SearchJobListingsByText(ctx, find)
}

// UpsertConversation persists conversation state, generating a UID for new
// conversations.
func (s *Store) UpsertConversation(ctx context.Context, upsert *Conversation) (*Conversation, error) {
	if upsert.UID == "" {
		upsert.UID = shortuuid.New()
	}
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now
	return s.driver.UpsertConversation(ctx, upsert)
}

// GetConversation loads a conversation by UID, returning nil when absent.
func (s *Store) GetConversation(ctx context.Context, uid string) (*Conversation, error) {
	return s.driver.GetConversation(ctx, uid)
}
