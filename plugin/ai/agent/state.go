// Package agent implements the career-advisor conversation loop: a small
// state machine that routes each user turn through skill extraction, the
// advisor, and the job scout, with LLM tool calls executed in between.
package agent

import (
	"encoding/json"

	"github.com/careerscout/careerscout/plugin/ai"
)

// Agent names. A conversation starts with the advisor and hands off to the
// scout at most once; it never goes back.
const (
	AgentAdvisor = "advisor"
	AgentScout   = "scout"
)

// ConversationState is everything the orchestrator carries between turns.
// It serializes to JSON for persistence.
type ConversationState struct {
	Messages        []Message `json:"messages"`
	CurrentSkills   []string  `json:"current_skills,omitempty"`
	IdentifiedRole  string    `json:"identified_role,omitempty"`
	Location        string    `json:"location,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	// ActiveAgent is "advisor" or "scout". Empty means advisor.
	ActiveAgent string `json:"active_agent,omitempty"`
}

// Message is one entry in the conversation transcript. Tool-call turns keep
// the call metadata so the transcript replays cleanly into the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Agent records which agent produced an assistant message.
	Agent      string        `json:"agent,omitempty"`
	ToolCalls  []ai.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	ToolName   string        `json:"tool_name,omitempty"`
}

// Active returns the agent owning the conversation, defaulting to advisor.
func (s *ConversationState) Active() string {
	if s.ActiveAgent == AgentScout {
		return AgentScout
	}
	return AgentAdvisor
}

// PendingToolCalls returns the unanswered tool calls of the last assistant
// message, or nil when the last message needs no tool work.
func (s *ConversationState) PendingToolCalls() []ai.ToolCall {
	if len(s.Messages) == 0 {
		return nil
	}
	last := s.Messages[len(s.Messages)-1]
	if last.Role != ai.RoleAssistant {
		return nil
	}
	return last.ToolCalls
}

// Marshal serializes the state for persistence.
func (s *ConversationState) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalState restores a conversation from its persisted form.
func UnmarshalState(data []byte) (*ConversationState, error) {
	state := &ConversationState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	return state, nil
}
