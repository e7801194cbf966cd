package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/plugin/ai"
	"github.com/careerscout/careerscout/plugin/ai/hybrid"
	"github.com/careerscout/careerscout/store"
)

// JobSearchName is the tool the scout calls to find listings.
const JobSearchName = "search_jobs"

// AnyRole is the role value meaning the user will take any kind of job; the
// text fallback drops its title predicate for it.
const AnyRole = "anything"

const (
	searchCandidates = 100
	searchResults    = 5
)

// JobSearchResult is the payload shape the tool returns to the model.
type JobSearchResult struct {
	Results       []*store.JobListingResult `json:"results,omitempty"`
	MissingFields []string                  `json:"missing_fields,omitempty"`
	Message       string                    `json:"message,omitempty"`
}

type JobSearchTool struct {
	coordinator *hybrid.Coordinator
	store       *store.Store
	embedder    ai.EmbeddingService
}

func NewJobSearchTool(coordinator *hybrid.Coordinator, store *store.Store, embedder ai.EmbeddingService) *JobSearchTool {
	return &JobSearchTool{coordinator: coordinator, store: store, embedder: embedder}
}

func (t *JobSearchTool) Name() string { return JobSearchName }

func (t *JobSearchTool) Description() string {
	return "Search job listings by role, location and experience level. All three are required; " +
		"pass the role \"anything\" when the user has no role preference."
}

func (t *JobSearchTool) Parameters() map[string]any {
	return map[string]any{
		"role": map[string]any{
			"type":        "string",
			"description": "Job title to search for, or \"anything\"",
		},
		"location": map[string]any{
			"type":        "string",
			"description": "City or region the user wants to work in",
		},
		"experience": map[string]any{
			"type":        "string",
			"description": "Experience level, e.g. junior, mid, senior",
		},
	}
}

func (t *JobSearchTool) Execute(ctx context.Context, arguments json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Role       string `json:"role"`
		Location   string `json:"location"`
		Experience string `json:"experience"`
	}
	if err := json.Unmarshal(arguments, &args); err != nil {
		return nil, errors.Wrap(err, "invalid search_jobs arguments")
	}

	role := strings.TrimSpace(args.Role)
	switch strings.ToLower(role) {
	case "", "unknown", "none":
		// No role preference reads as a catch-all search.
		role = AnyRole
	}
	query := hybrid.JobQuery{Role: role, Location: args.Location, Experience: args.Experience}
	outcome, err := t.coordinator.JobSearch(ctx, query, func(ctx context.Context) (json.RawMessage, bool, error) {
		return t.search(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	if len(outcome.MissingFields) > 0 {
		return json.Marshal(JobSearchResult{
			MissingFields: outcome.MissingFields,
			Message:       "ask the user for: " + strings.Join(outcome.MissingFields, ", "),
		})
	}
	return outcome.Payload, nil
}

// search is the authoritative pipeline: a wide vector search narrowed by
// structured filters, with a plain text search as the fallback when vectors
// are unavailable or produce nothing.
func (t *JobSearchTool) search(ctx context.Context, query hybrid.JobQuery) (json.RawMessage, bool, error) {
	results, err := t.vectorSearch(ctx, query)
	if err != nil && !errors.Is(err, store.ErrUnsupported) {
		return nil, false, err
	}

	if len(results) == 0 {
		results, err = t.textSearch(ctx, query)
		if err != nil {
			return nil, false, err
		}
	}

	if len(results) == 0 {
		payload, err := json.Marshal(JobSearchResult{Message: "no matching job listings found"})
		return payload, false, err
	}
	payload, err := json.Marshal(JobSearchResult{Results: results})
	return payload, true, err
}

func (t *JobSearchTool) vectorSearch(ctx context.Context, query hybrid.JobQuery) ([]*store.JobListingResult, error) {
	vector, err := t.embedder.Embed(ctx, ListingEmbeddingText(query.Role, query.Location, query.Experience, ""))
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed search query")
	}

	candidates, err := t.store.SearchJobListingsByVector(ctx, &store.VectorJobSearch{
		Vector:         vector,
		CandidateLimit: searchCandidates,
	})
	if err != nil {
		return nil, err
	}

	// Title relevance is already what the vector ranking ordered by; only the
	// structured fields are filtered here.
	var results []*store.JobListingResult
	for _, candidate := range candidates {
		if !containsFold(candidate.Location, query.Location) {
			continue
		}
		if !containsFold(candidate.ExperienceLevel, query.Experience) {
			continue
		}
		results = append(results, candidate)
		if len(results) == searchResults {
			break
		}
	}
	return results, nil
}

func (t *JobSearchTool) textSearch(ctx context.Context, query hybrid.JobQuery) ([]*store.JobListingResult, error) {
	title := query.Role
	if strings.EqualFold(strings.TrimSpace(title), AnyRole) {
		title = ""
	}
	return t.store.SearchJobListingsByText(ctx, &store.TextJobSearch{
		Title:      title,
		Location:   query.Location,
		Experience: query.Experience,
		Limit:      searchResults,
	})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

// ListingEmbeddingText is the canonical text embedded for a listing, shared
// by the seeder and the search side so both live in the same vector space.
// Location and experience lead because they matter more than the title for
// retrieval quality.
func ListingEmbeddingText(title, location, experience, description string) string {
	text := fmt.Sprintf("Location: %s. Experience: %s. Title: %s.", location, experience, title)
	if description != "" {
		text += " " + description
	}
	return text
}

var _ Tool = (*JobSearchTool)(nil)
