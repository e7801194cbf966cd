package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/plugin/ai"
)

type stubTool struct {
	name    string
	payload json.RawMessage
	err     error
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) Parameters() map[string]any {
	return map[string]any{"q": map[string]any{"type": "string"}}
}
func (t *stubTool) Execute(context.Context, json.RawMessage) (json.RawMessage, error) {
	return t.payload, t.err
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(observability.NewLogger(true), observability.NopMetrics())
}

func TestRegistryDispatch(t *testing.T) {
	r := newTestRegistry(t)
	r.Register(&stubTool{name: "a", payload: json.RawMessage(`{"ok":true}`)})

	got := r.Execute(context.Background(), ai.ToolCall{Name: "a"})
	assert.JSONEq(t, `{"ok":true}`, string(got))
}

func TestRegistryUnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	got := r.Execute(context.Background(), ai.ToolCall{Name: "rm_rf"})
	assert.JSONEq(t, `{"error":"unknown tool: rm_rf"}`, string(got))
}

func TestRegistryToolFailureBecomesPayload(t *testing.T) {
	r := newTestRegistry(t)
	r.Register(&stubTool{name: "flaky", err: errors.New("db down")})

	var result map[string]string
	got := r.Execute(context.Background(), ai.ToolCall{Name: "flaky"})
	require.NoError(t, json.Unmarshal(got, &result))
	assert.Contains(t, result["error"], "db down")
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := newTestRegistry(t)
	r.Register(&stubTool{name: "a"})
	assert.Panics(t, func() { r.Register(&stubTool{name: "a"}) })
}

func TestRegistryDescriptorsKeepOrder(t *testing.T) {
	r := newTestRegistry(t)
	r.Register(&stubTool{name: "b"})
	r.Register(&stubTool{name: "a"})

	descriptors := r.Descriptors()
	require.Len(t, descriptors, 2)
	assert.Equal(t, "b", descriptors[0].Name)
	assert.Equal(t, "a", descriptors[1].Name)
	assert.JSONEq(t, `{"type":"object","properties":{"q":{"type":"string"}}}`, descriptors[0].Parameters)
}

func TestListingEmbeddingText(t *testing.T) {
	assert.Equal(t,
		"Location: Berlin. Experience: senior. Title: Data Engineer.",
		ListingEmbeddingText("Data Engineer", "Berlin", "senior", ""))
	assert.Equal(t,
		"Location: Berlin. Experience: senior. Title: Data Engineer. Builds pipelines.",
		ListingEmbeddingText("Data Engineer", "Berlin", "senior", "Builds pipelines."))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, containsFold("Senior Data Scientist", "data scientist"))
	assert.True(t, containsFold("New York, NY", " new york "))
	assert.False(t, containsFold("Berlin", "Munich"))
}
