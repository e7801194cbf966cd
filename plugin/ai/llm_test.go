package ai

import (
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripLegacySentinel(t *testing.T) {
	text, stripped := StripLegacySentinel("Great, moving on. HANDOFF_TO_SCOUT")
	assert.True(t, stripped)
	assert.Equal(t, "Great, moving on.", text)

	text, stripped = StripLegacySentinel("No marker here.")
	assert.False(t, stripped)
	assert.Equal(t, "No marker here.", text)
}

func TestConvertMessages(t *testing.T) {
	msgs := convertMessages([]Message{
		{Role: RoleSystem, Content: "ctx"},
		{Role: RoleAssistant, Content: "", ToolCalls: []ToolCall{{ID: "1", Name: "find_best_role_match", Arguments: `{"skills":["go"]}`}}},
		{Role: RoleTool, Name: "find_best_role_match", ToolCallID: "1", Content: `{"role_name":"Backend Engineer"}`},
	})
	require.Len(t, msgs, 3)

	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "find_best_role_match", msgs[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "1", msgs[2].ToolCallID)
}

func TestConvertTools(t *testing.T) {
	assert.Nil(t, convertTools(nil))

	tools := convertTools([]ToolDescriptor{
		{Name: "search_job_listings", Description: "search", Parameters: `{"type":"object"}`},
		{Name: HandoffToolName},
	})
	require.Len(t, tools, 2)
	assert.Equal(t, "search_job_listings", tools[0].Function.Name)
	// Empty schemas get a valid object schema so the API accepts the binding.
	raw, ok := tools[1].Function.Parameters.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(raw))
}
