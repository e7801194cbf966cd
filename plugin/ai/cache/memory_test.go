package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerscout/careerscout/internal/observability"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(observability.NopMetrics())
	defer c.Close()
	ctx := context.Background()

	key := MakeKey("role_match", map[string]any{"skills": []string{"python"}})
	value := json.RawMessage(`{"role_name":"Data Analyst","match_score":3}`)

	assert.Equal(t, StatusMiss, c.Lookup(ctx, key).Status)

	require.NoError(t, c.Set(ctx, key, value, time.Hour))
	got := c.Lookup(ctx, key)
	require.True(t, got.Hit())
	assert.JSONEq(t, string(value), string(got.Value))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(observability.NopMetrics())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "job_search:abc", json.RawMessage(`[]`), 10*time.Millisecond))
	require.True(t, c.Lookup(ctx, "job_search:abc").Hit())

	time.Sleep(20 * time.Millisecond)
	// Entries past expiry read as absent even though the backing map may
	// still hold them.
	assert.Equal(t, StatusMiss, c.Lookup(ctx, "job_search:abc").Status)
}
