// Package hybrid coordinates the two cache tiers in front of expensive
// lookups. Each operation fixes its own tier ordering: role matching probes
// the semantic tier first because paraphrased skill lists should converge on
// one answer, while job search probes the exact tier first because repeated
// identical queries dominate and must stay cheap.
package hybrid

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/internal/profile"
	"github.com/careerscout/careerscout/plugin/ai"
	"github.com/careerscout/careerscout/plugin/ai/cache"
	"github.com/careerscout/careerscout/plugin/ai/semcache"
)

// Operation names, used as exact-key prefixes and metric labels.
const (
	OpRoleMatch = "role_match"
	OpJobSearch = "job_search"
)

// Field values the job-search entry path treats as absent.
var absentFieldValues = map[string]bool{
	"":        true,
	"unknown": true,
	"none":    true,
}

// ComputeFunc produces the authoritative payload on a full cache miss.
// ok reports whether the payload is a real answer: negative results
// (no matching role, no listings) come back with ok=false and are returned
// to the caller but never cached.
type ComputeFunc func(ctx context.Context) (payload json.RawMessage, ok bool, err error)

// Coordinator fronts both cache tiers. Tier failures degrade lookups, they
// never fail them: an unreachable exact store reads as a miss and an
// embedding failure skips the semantic tier for the request.
type Coordinator struct {
	exact    cache.ExactCache
	semantic semcache.SemanticCache
	embedder ai.EmbeddingService
	profile  *profile.Profile
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewCoordinator(exact cache.ExactCache, semantic semcache.SemanticCache, embedder ai.EmbeddingService,
	profile *profile.Profile, logger *slog.Logger, metrics *observability.Metrics) *Coordinator {
	return &Coordinator{
		exact:    exact,
		semantic: semantic,
		embedder: embedder,
		profile:  profile,
		logger:   logger,
		metrics:  metrics,
	}
}

// RoleMatch resolves a skill set to a role payload, semantic tier first.
// A semantic hit returns immediately without touching the exact tier; the
// exact key only matters on the miss path.
func (c *Coordinator) RoleMatch(ctx context.Context, skills []string, compute ComputeFunc) (json.RawMessage, error) {
	defer c.metrics.TimeStage(OpRoleMatch)()

	normalized := cache.NormalizeSkills(skills)
	queryText := strings.Join(normalized, ", ")
	key := cache.MakeKey(OpRoleMatch, map[string]any{"skills": normalized})

	vector := c.embed(ctx, queryText)
	if vector != nil {
		payload, ok, err := c.semantic.Lookup(ctx, vector, semcache.CategoryRoleMatch, c.profile.RoleMatchThreshold)
		if err != nil {
			c.logger.Warn("semantic lookup degraded", "op", OpRoleMatch, "error", err)
		} else if ok {
			return payload, nil
		}
	}

	if result := c.exact.Lookup(ctx, key); result.Hit() {
		return result.Value, nil
	}

	payload, ok, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return payload, nil
	}

	c.setExact(ctx, key, payload, OpRoleMatch)
	if vector != nil {
		if err := c.semantic.Store(ctx, queryText, vector, payload, semcache.CategoryRoleMatch); err != nil {
			c.logger.Warn("semantic store failed", "op", OpRoleMatch, "error", err)
		}
	}
	return payload, nil
}

// JobQuery is the structured input to a job search.
type JobQuery struct {
	Role       string
	Location   string
	Experience string
}

// Missing lists the required query fields with no usable value, in a fixed
// order. The role is not required: an absent role is a catch-all search, so
// only location and experience gate the search.
func (q JobQuery) Missing() []string {
	var missing []string
	if absentFieldValues[normalizeField(q.Location)] {
		missing = append(missing, "location")
	}
	if absentFieldValues[normalizeField(q.Experience)] {
		missing = append(missing, "experience")
	}
	return missing
}

func normalizeField(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// JobSearchOutcome is the result of a coordinated job search. Exactly one of
// Payload and MissingFields is set.
type JobSearchOutcome struct {
	Payload       json.RawMessage
	MissingFields []string
}

// JobSearch resolves a job query, exact tier first. Incomplete queries
// short-circuit before any cache or store access. A semantic hit (a
// paraphrase of an earlier query) backfills the exact key for this query's
// own fingerprint.
func (c *Coordinator) JobSearch(ctx context.Context, query JobQuery, compute ComputeFunc) (*JobSearchOutcome, error) {
	if missing := query.Missing(); len(missing) > 0 {
		return &JobSearchOutcome{MissingFields: missing}, nil
	}
	defer c.metrics.TimeStage(OpJobSearch)()

	role := cache.NormalizeTerm(query.Role)
	location := cache.NormalizeTerm(query.Location)
	experience := cache.NormalizeTerm(query.Experience)
	key := cache.MakeKey(OpJobSearch, map[string]any{
		"role":       role,
		"location":   location,
		"experience": experience,
	})

	if result := c.exact.Lookup(ctx, key); result.Hit() {
		return &JobSearchOutcome{Payload: result.Value}, nil
	}

	queryText := role + " jobs in " + location + ", " + experience + " level"
	vector := c.embed(ctx, queryText)
	if vector != nil {
		payload, ok, err := c.semantic.Lookup(ctx, vector, semcache.CategoryJobSearch, c.profile.JobSearchThreshold)
		if err != nil {
			c.logger.Warn("semantic lookup degraded", "op", OpJobSearch, "error", err)
		} else if ok {
			c.setExact(ctx, key, payload, OpJobSearch)
			return &JobSearchOutcome{Payload: payload}, nil
		}
	}

	payload, ok, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &JobSearchOutcome{Payload: payload}, nil
	}

	c.setExact(ctx, key, payload, OpJobSearch)
	if vector != nil {
		if err := c.semantic.Store(ctx, queryText, vector, payload, semcache.CategoryJobSearch); err != nil {
			c.logger.Warn("semantic store failed", "op", OpJobSearch, "error", err)
		}
	}
	return &JobSearchOutcome{Payload: payload}, nil
}

// embed returns nil when the embedding call fails; the request then runs
// with the exact tier only.
func (c *Coordinator) embed(ctx context.Context, text string) []float32 {
	vector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		c.metrics.CacheUnavailable(observability.TierSemantic)
		c.logger.Warn("embedding failed, skipping semantic tier", "error", err)
		return nil
	}
	return vector
}

func (c *Coordinator) setExact(ctx context.Context, key string, payload json.RawMessage, op string) {
	ttl := c.profile.RoleMatchTTL
	if op == OpJobSearch {
		ttl = c.profile.JobSearchTTL
	}
	if err := c.exact.Set(ctx, key, payload, ttl); err != nil {
		c.logger.Warn("exact cache write failed", "op", op, "error", err)
	}
}
