package hybrid

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/internal/profile"
	"github.com/careerscout/careerscout/plugin/ai/cache"
	"github.com/careerscout/careerscout/plugin/ai/semcache"
)

// fakeEmbedder returns a deterministic unit vector per distinct text, so
// identical texts are identical vectors and distinct texts are (almost
// surely) far apart.
type fakeEmbedder struct {
	calls int
	fail  bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedding provider down")
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()
	vector := make([]float32, 8)
	for i := range vector {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000) + 1
	}
	return vector, nil
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		RoleMatchThreshold: 0.10,
		JobSearchThreshold: 0.15,
		RoleMatchTTL:       time.Hour,
		JobSearchTTL:       10 * time.Minute,
		SemanticTTL:        24 * time.Hour,
	}
}

func newTestCoordinator(t *testing.T, embedder *fakeEmbedder) (*Coordinator, cache.ExactCache, semcache.SemanticCache) {
	t.Helper()
	logger := observability.NewLogger(true)
	metrics := observability.NopMetrics()
	exact := cache.NewMemoryCache(metrics)
	t.Cleanup(func() { exact.Close() })
	semantic := semcache.NewMemoryIndex(24*time.Hour, logger, metrics)
	return NewCoordinator(exact, semantic, embedder, testProfile(), logger, metrics), exact, semantic
}

func countingCompute(payload string, ok bool) (ComputeFunc, *int) {
	calls := new(int)
	return func(context.Context) (json.RawMessage, bool, error) {
		*calls++
		return json.RawMessage(payload), ok, nil
	}, calls
}

func TestRoleMatchComputesOnceThenServesSemantically(t *testing.T) {
	ctx := context.Background()
	coordinator, _, _ := newTestCoordinator(t, &fakeEmbedder{})
	compute, calls := countingCompute(`{"role":"Backend Engineer"}`, true)

	got, err := coordinator.RoleMatch(ctx, []string{"Python", "APIs"}, compute)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"Backend Engineer"}`, string(got))
	assert.Equal(t, 1, *calls)

	// Same skills in a different order normalize to the same query, so the
	// semantic tier answers and compute never runs again.
	got, err = coordinator.RoleMatch(ctx, []string{"apis", "python"}, compute)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"Backend Engineer"}`, string(got))
	assert.Equal(t, 1, *calls)
}

func TestRoleMatchMissWritesBothTiers(t *testing.T) {
	ctx := context.Background()
	coordinator, exact, _ := newTestCoordinator(t, &fakeEmbedder{})
	compute, calls := countingCompute(`{"role":"Data Scientist"}`, true)

	_, err := coordinator.RoleMatch(ctx, []string{"pandas", "statistics"}, compute)
	require.NoError(t, err)
	require.Equal(t, 1, *calls)

	key := cache.MakeKey(OpRoleMatch, map[string]any{
		"skills": cache.NormalizeSkills([]string{"pandas", "statistics"}),
	})
	result := exact.Lookup(ctx, key)
	require.True(t, result.Hit())
	assert.JSONEq(t, `{"role":"Data Scientist"}`, string(result.Value))
}

func TestRoleMatchSemanticHitLeavesExactTierAlone(t *testing.T) {
	ctx := context.Background()
	coordinator, exact, semantic := newTestCoordinator(t, &fakeEmbedder{})

	// Seed the semantic tier directly: identical vectors stand in for a
	// paraphrased skill list here.
	embedder := &fakeEmbedder{}
	vector, err := embedder.Embed(ctx, "pandas, statistics")
	require.NoError(t, err)
	payload := json.RawMessage(`{"role":"Data Scientist"}`)
	require.NoError(t, semantic.Store(ctx, "stats and pandas", vector, payload, semcache.CategoryRoleMatch))

	compute, calls := countingCompute(`{}`, true)
	got, err := coordinator.RoleMatch(ctx, []string{"pandas", "statistics"}, compute)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(got))
	assert.Zero(t, *calls)

	// Unlike job search, a role-match semantic hit is returned as is: the
	// exact tier stays empty for this skill set.
	key := cache.MakeKey(OpRoleMatch, map[string]any{
		"skills": cache.NormalizeSkills([]string{"pandas", "statistics"}),
	})
	assert.False(t, exact.Lookup(ctx, key).Hit())
}

func TestRoleMatchEmbeddingFailureFallsBackToExactTier(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{fail: true}
	coordinator, _, _ := newTestCoordinator(t, embedder)
	compute, calls := countingCompute(`{"role":"SRE"}`, true)

	_, err := coordinator.RoleMatch(ctx, []string{"kubernetes"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	// Second identical request: semantic tier is still down, but the exact
	// tier now holds the answer.
	_, err = coordinator.RoleMatch(ctx, []string{"kubernetes"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
}

func TestRoleMatchNegativeResultIsNotCached(t *testing.T) {
	ctx := context.Background()
	coordinator, _, _ := newTestCoordinator(t, &fakeEmbedder{})
	compute, calls := countingCompute(`{"message":"no matching role"}`, false)

	got, err := coordinator.RoleMatch(ctx, []string{"underwater basket weaving"}, compute)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"no matching role"}`, string(got))

	_, err = coordinator.RoleMatch(ctx, []string{"underwater basket weaving"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "negative results recompute every time")
}

func TestJobSearchMissingFieldsShortCircuit(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{}
	coordinator, _, _ := newTestCoordinator(t, embedder)
	compute, calls := countingCompute(`{}`, true)

	for _, query := range []JobQuery{
		{Role: "Engineer", Location: "", Experience: "senior"},
		{Role: "Engineer", Location: "unknown", Experience: "senior"},
		{Role: "Engineer", Location: "None", Experience: "senior"},
	} {
		outcome, err := coordinator.JobSearch(ctx, query, compute)
		require.NoError(t, err)
		assert.Equal(t, []string{"location"}, outcome.MissingFields)
		assert.Nil(t, outcome.Payload)
	}

	outcome, err := coordinator.JobSearch(ctx, JobQuery{Role: "Engineer"}, compute)
	require.NoError(t, err)
	assert.Equal(t, []string{"location", "experience"}, outcome.MissingFields)

	// The short circuit runs before every tier: no compute, no embedding.
	assert.Zero(t, *calls)
	assert.Zero(t, embedder.calls)
}

func TestJobSearchRepeatHitsExactTier(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{}
	coordinator, _, _ := newTestCoordinator(t, embedder)
	compute, calls := countingCompute(`{"results":[{"job_title":"Data Scientist"}]}`, true)

	query := JobQuery{Role: "Data Scientist", Location: "New York", Experience: "senior"}
	_, err := coordinator.JobSearch(ctx, query, compute)
	require.NoError(t, err)
	require.Equal(t, 1, *calls)
	embedsAfterFirst := embedder.calls

	// Identical query: the exact tier answers before any embedding work.
	outcome, err := coordinator.JobSearch(ctx, query, compute)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"job_title":"Data Scientist"}]}`, string(outcome.Payload))
	assert.Equal(t, 1, *calls)
	assert.Equal(t, embedsAfterFirst, embedder.calls)
}

func TestJobSearchSemanticHitBackfillsCurrentExactKey(t *testing.T) {
	ctx := context.Background()
	coordinator, exact, semantic := newTestCoordinator(t, &fakeEmbedder{})

	// Seed the semantic tier directly with a paraphrase close enough to the
	// incoming query: identical vectors stand in for paraphrases here.
	embedder := &fakeEmbedder{}
	vector, err := embedder.Embed(ctx, "data scientist jobs in new york, senior level")
	require.NoError(t, err)
	payload := json.RawMessage(`{"results":[{"job_title":"Senior Data Scientist"}]}`)
	require.NoError(t, semantic.Store(ctx, "ds roles nyc", vector, payload, semcache.CategoryJobSearch))

	compute, calls := countingCompute(`{}`, true)
	query := JobQuery{Role: "Data Scientist", Location: "New York", Experience: "Senior"}
	outcome, err := coordinator.JobSearch(ctx, query, compute)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(outcome.Payload))
	assert.Zero(t, *calls)

	// The hit is copied under this query's own exact fingerprint.
	key := cache.MakeKey(OpJobSearch, map[string]any{
		"role":       "data scientist",
		"location":   "new york",
		"experience": "senior",
	})
	result := exact.Lookup(ctx, key)
	require.True(t, result.Hit())
	assert.JSONEq(t, string(payload), string(result.Value))
}

func TestJobSearchComputeErrorPropagates(t *testing.T) {
	ctx := context.Background()
	coordinator, _, _ := newTestCoordinator(t, &fakeEmbedder{})

	query := JobQuery{Role: "Engineer", Location: "Berlin", Experience: "mid"}
	_, err := coordinator.JobSearch(ctx, query, func(context.Context) (json.RawMessage, bool, error) {
		return nil, false, errors.New("store down")
	})
	assert.ErrorContains(t, err, "store down")
}

func TestJobQueryMissing(t *testing.T) {
	assert.Nil(t, JobQuery{Role: "x", Location: "y", Experience: "z"}.Missing())
	assert.Nil(t, JobQuery{Location: "y", Experience: "z"}.Missing(), "role is never required")
	assert.Equal(t, []string{"location"}, JobQuery{Role: "x", Location: "  ", Experience: "z"}.Missing())
	assert.Equal(t, []string{"experience"},
		JobQuery{Role: "UNKNOWN", Location: "y", Experience: "none"}.Missing())
}
