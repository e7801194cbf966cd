package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/plugin/ai"
	"github.com/careerscout/careerscout/plugin/ai/agent/tools"
)

// maxSteps bounds the model/tool round trips inside one user turn.
const maxSteps = 8

// failureReply is what the user sees when the provider fails mid-turn. The
// conversation itself stays usable; state is not advanced past the user
// message.
const failureReply = "Sorry, I ran into a problem handling that. Please try again."

// Orchestrator drives one conversation turn through the agent state
// machine. Routing is monotonic: once the scout owns the conversation the
// advisor and the skill extractor never run again.
type Orchestrator struct {
	llm       ai.LLMService
	extractor *SkillExtractor
	registry  *tools.Registry
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func NewOrchestrator(llm ai.LLMService, extractor *SkillExtractor, registry *tools.Registry,
	logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		llm:       llm,
		extractor: extractor,
		registry:  registry,
		logger:    logger,
		metrics:   metrics,
	}
}

// Turn processes one user input against the conversation state and returns
// the assistant's reply. State is mutated in place; on provider failure the
// partial work is rolled back and the transcript carries the user message
// plus a visible failure reply, nothing else.
func (o *Orchestrator) Turn(ctx context.Context, state *ConversationState, userInput string) (string, error) {
	defer o.metrics.TimeStage("turn")()
	turn, ok := observability.TurnFromContext(ctx)
	if !ok {
		turn = observability.NewTurnContext(o.logger, "")
	}

	state.Messages = append(state.Messages, Message{Role: ai.RoleUser, Content: userInput})

	// Skill extraction only feeds the advisory phase, and only until a skill
	// set has been derived.
	if state.Active() == AgentAdvisor && len(state.CurrentSkills) == 0 {
		if skills := o.extractor.Extract(ctx, userInput); len(skills) > 0 {
			state.CurrentSkills = mergeSkills(state.CurrentSkills, skills)
			turn.Debug("skills extracted", slog.Any("skills", skills))
		}
	}

	// A failed turn rolls back to here: the user message survives, partial
	// assistant output and a half-finished handoff do not.
	checkpoint := len(state.Messages)
	activeCheckpoint := state.ActiveAgent

	for step := 0; step < maxSteps; step++ {
		agent := state.Active()
		response, err := o.llm.ChatWithTools(ctx, o.buildMessages(state, agent), o.toolsFor(agent))
		if err != nil {
			turn.Error("model call failed", err, slog.String(observability.LogFieldAgent, agent))
			return o.failTurn(state, checkpoint, activeCheckpoint), nil
		}

		if len(response.ToolCalls) > 0 {
			// Pending tool calls run before any handoff takes effect, so their
			// results (an identified role in particular) land in state first.
			state.Messages = append(state.Messages, Message{
				Role: ai.RoleAssistant, Content: response.Content, Agent: agent, ToolCalls: response.ToolCalls,
			})
			o.executeToolCalls(ctx, state, response.ToolCalls)
			if response.Handoff && agent == AgentAdvisor {
				turn.Info("advisor handed off to scout", slog.String("role", state.IdentifiedRole))
				state.ActiveAgent = AgentScout
			}
			continue
		}

		if response.Handoff && agent == AgentAdvisor {
			turn.Info("advisor handed off to scout", slog.String("role", state.IdentifiedRole))
			state.ActiveAgent = AgentScout
			if response.Content != "" {
				state.Messages = append(state.Messages, Message{
					Role: ai.RoleAssistant, Content: response.Content, Agent: AgentAdvisor,
				})
			}
			// The scout produces the rest of this turn.
			continue
		}

		state.Messages = append(state.Messages, Message{
			Role: ai.RoleAssistant, Content: response.Content, Agent: agent,
		})
		return response.Content, nil
	}

	turn.Warn("turn exceeded step budget", slog.Int("max_steps", maxSteps))
	return o.failTurn(state, checkpoint, activeCheckpoint), nil
}

// failTurn rolls the turn back to its checkpoint and appends the visible
// failure message in place of whatever was attempted.
func (o *Orchestrator) failTurn(state *ConversationState, checkpoint int, activeCheckpoint string) string {
	state.Messages = state.Messages[:checkpoint]
	state.ActiveAgent = activeCheckpoint
	state.Messages = append(state.Messages, Message{
		Role: ai.RoleAssistant, Content: failureReply, Agent: state.Active(),
	})
	return failureReply
}

// executeToolCalls runs each requested tool and appends the results to the
// transcript. A successful role match also updates the conversation's
// identified role.
func (o *Orchestrator) executeToolCalls(ctx context.Context, state *ConversationState, calls []ai.ToolCall) {
	for _, call := range calls {
		payload := o.registry.Execute(ctx, call)

		if call.Name == tools.RoleMatchName {
			var result tools.RoleMatchResult
			if err := json.Unmarshal(payload, &result); err != nil {
				// The raw output still goes back to the model; only the
				// identified-role side effect is skipped.
				o.logger.Warn("tool result parse failed",
					slog.String("tool", call.Name), slog.String("error", err.Error()))
			} else if result.Role != "" {
				state.IdentifiedRole = result.Role
			}
		}

		state.Messages = append(state.Messages, Message{
			Role:       ai.RoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})
	}
}

// buildMessages assembles the provider transcript: the active agent's system
// prompt followed by the conversation so far.
func (o *Orchestrator) buildMessages(state *ConversationState, agent string) []ai.Message {
	messages := make([]ai.Message, 0, len(state.Messages)+1)
	if agent == AgentScout {
		role := state.IdentifiedRole
		if role == "" {
			role = DefaultRole
		}
		messages = append(messages, ai.SystemPrompt(fmt.Sprintf(scoutPrompt, role)))
	} else {
		prompt := advisorPrompt
		if len(state.CurrentSkills) > 0 {
			prompt += "\n\nSkills already identified for this user: " + strings.Join(state.CurrentSkills, ", ") + "."
		}
		messages = append(messages, ai.SystemPrompt(prompt))
	}

	for _, m := range state.Messages {
		messages = append(messages, ai.Message{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.ToolName,
			ToolCallID: m.ToolCallID,
			ToolCalls:  m.ToolCalls,
		})
	}
	return messages
}

// toolsFor returns the tool bindings for the agent. The advisor additionally
// carries the handoff tool; the scout never does, so a second handoff cannot
// happen.
func (o *Orchestrator) toolsFor(agent string) []ai.ToolDescriptor {
	if agent == AgentScout {
		return o.filterDescriptors(tools.JobSearchName)
	}
	descriptors := o.filterDescriptors(tools.RoleMatchName)
	return append(descriptors, ai.ToolDescriptor{
		Name: ai.HandoffToolName,
		Description: "Hand the conversation over to the job scout. Call this only when the user " +
			"has settled on a role and wants to see actual job listings.",
	})
}

func (o *Orchestrator) filterDescriptors(names ...string) []ai.ToolDescriptor {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	var descriptors []ai.ToolDescriptor
	for _, d := range o.registry.Descriptors() {
		if wanted[d.Name] {
			descriptors = append(descriptors, d)
		}
	}
	return descriptors
}

func mergeSkills(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, skill := range existing {
		seen[skill] = true
		merged = append(merged, skill)
	}
	for _, skill := range incoming {
		if !seen[skill] {
			seen[skill] = true
			merged = append(merged, skill)
		}
	}
	return merged
}
