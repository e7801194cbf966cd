// Package tools holds the callable tools the agents may invoke. The
// registry is a closed dispatch table: the LLM can only ever reach tools
// registered at startup, and an unknown tool name is answered with an error
// payload rather than an execution attempt.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/plugin/ai"
)

// Tool is one callable capability. Execute receives the raw JSON arguments
// from the model and returns a JSON payload; application-level failures are
// encoded into the payload so the model can react to them.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-schema properties of the arguments.
	Parameters() map[string]any
	Execute(ctx context.Context, arguments json.RawMessage) (json.RawMessage, error)
}

// Registry is the closed set of tools available to an agent.
type Registry struct {
	tools   map[string]Tool
	order   []string
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewRegistry(logger *slog.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		logger:  logger,
		metrics: metrics,
	}
}

// Register adds a tool. Registering a duplicate name panics; the table is
// assembled once at startup and a collision is a programming error.
func (r *Registry) Register(tool Tool) {
	name := tool.Name()
	if _, ok := r.tools[name]; ok {
		panic("tools: duplicate registration of " + name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
}

// Descriptors returns the tool descriptors in registration order, for
// binding to a chat completion request.
func (r *Registry) Descriptors() []ai.ToolDescriptor {
	descriptors := make([]ai.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		schema := map[string]any{
			"type":       "object",
			"properties": tool.Parameters(),
		}
		raw, err := json.Marshal(schema)
		if err != nil {
			continue
		}
		descriptors = append(descriptors, ai.ToolDescriptor{
			Name:        name,
			Description: tool.Description(),
			Parameters:  string(raw),
		})
	}
	return descriptors
}

// Execute dispatches one tool call. The returned payload is always valid
// JSON: infrastructure errors and unknown tools come back as {"error": ...}
// payloads so the conversation can continue.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) json.RawMessage {
	tool, ok := r.tools[call.Name]
	if !ok {
		r.logger.Warn("model requested unknown tool", "tool", call.Name)
		return errorPayload("unknown tool: " + call.Name)
	}

	r.metrics.ToolUsed(call.Name)
	defer r.metrics.TimeStage("tool_" + call.Name)()

	payload, err := tool.Execute(ctx, json.RawMessage(call.Arguments))
	if err != nil {
		r.logger.Error("tool execution failed", "tool", call.Name, "error", err)
		return errorPayload("tool failed: " + err.Error())
	}
	return payload
}

func errorPayload(message string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"error": message})
	return raw
}
