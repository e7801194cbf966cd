// Package ai defines the reasoning-service and embedding capabilities used by
// the agents, plus the OpenAI-compatible provider implementing both.
package ai

import (
	"context"
	"strings"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents one chat message in a reasoning-service invocation.
type Message struct {
	Role    string
	Content string
	// Name is the tool name for RoleTool messages.
	Name string
	// ToolCallID ties a RoleTool message back to the call that produced it.
	ToolCallID string
	// ToolCalls carries the structured tool requests of an assistant message.
	ToolCalls []ToolCall
}

// ToolCall is a structured tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDescriptor describes a tool binding for a single invocation.
type ToolDescriptor struct {
	Name        string
	Description string
	// Parameters is the JSON Schema of the tool input.
	Parameters string
}

// HandoffToolName is the reserved tool the advisor binds to signal the
// advisor-to-scout handoff. The provider folds a call to it into the
// structured Handoff flag instead of surfacing it as a pending tool request.
const HandoffToolName = "confirm_role_handoff"

// legacySentinel is the free-text handoff marker the handoff used to rely
// on. Models occasionally still emit it; it is stripped from visible text
// and never used for routing.
const legacySentinel = "HANDOFF_TO_SCOUT"

// ChatResponse is a reasoning-service response: visible text, structured
// pending tool requests, and the structured handoff flag.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
	Handoff   bool
}

// LLMService is the reasoning-service capability.
type LLMService interface {
	// Chat performs a plain completion without tool bindings.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatWithTools performs a completion with per-call tool bindings.
	ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor) (*ChatResponse, error)
}

// EmbeddingService maps text to a fixed-length vector. A failure returns an
// error, never a partial vector.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SystemPrompt builds a system message.
func SystemPrompt(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// StripLegacySentinel removes the historical free-text handoff marker from
// visible text.
func StripLegacySentinel(text string) (string, bool) {
	if !strings.Contains(text, legacySentinel) {
		return text, false
	}
	return strings.TrimSpace(strings.ReplaceAll(text, legacySentinel, "")), true
}
