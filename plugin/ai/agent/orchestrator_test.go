package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/plugin/ai"
	"github.com/careerscout/careerscout/plugin/ai/agent/tools"
	"github.com/careerscout/careerscout/plugin/ai/semcache"
)

// scriptedLLM replays a fixed sequence of responses. Each ChatWithTools call
// consumes one entry; Chat always answers the extraction prompt.
type scriptedLLM struct {
	script       []scriptStep
	extractReply string

	calls []scriptCall
}

type scriptStep struct {
	response *ai.ChatResponse
	err      error
}

type scriptCall struct {
	system string
	tools  []string
}

func (l *scriptedLLM) Chat(_ context.Context, _ []ai.Message) (string, error) {
	if l.extractReply == "" {
		return `{"skills": []}`, nil
	}
	return l.extractReply, nil
}

func (l *scriptedLLM) ChatWithTools(_ context.Context, messages []ai.Message, descriptors []ai.ToolDescriptor) (*ai.ChatResponse, error) {
	call := scriptCall{system: messages[0].Content}
	for _, d := range descriptors {
		call.tools = append(call.tools, d.Name)
	}
	l.calls = append(l.calls, call)

	if len(l.script) == 0 {
		return &ai.ChatResponse{Content: "out of script"}, nil
	}
	step := l.script[0]
	l.script = l.script[1:]
	return step.response, step.err
}

// echoTool records its invocations and returns a fixed payload.
type echoTool struct {
	name    string
	payload string
	calls   int
}

func (t *echoTool) Name() string               { return t.name }
func (t *echoTool) Description() string        { return t.name }
func (t *echoTool) Parameters() map[string]any { return map[string]any{} }
func (t *echoTool) Execute(context.Context, json.RawMessage) (json.RawMessage, error) {
	t.calls++
	return json.RawMessage(t.payload), nil
}

func newTestOrchestrator(t *testing.T, llm *scriptedLLM, registered ...tools.Tool) *Orchestrator {
	t.Helper()
	logger := observability.NewLogger(true)
	metrics := observability.NopMetrics()

	registry := tools.NewRegistry(logger, metrics)
	for _, tool := range registered {
		registry.Register(tool)
	}

	semantic := semcache.NewMemoryIndex(time.Hour, logger, metrics)
	extractor := NewSkillExtractor(llm, &staticEmbedder{}, semantic, 0.15, logger, metrics)
	return NewOrchestrator(llm, extractor, registry, logger, metrics)
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func TestTurnAdvisorPlainReply(t *testing.T) {
	llm := &scriptedLLM{script: []scriptStep{
		{response: &ai.ChatResponse{Content: "Tell me about your skills."}},
	}}
	o := newTestOrchestrator(t, llm)

	state := &ConversationState{}
	reply, err := o.Turn(context.Background(), state, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Tell me about your skills.", reply)
	assert.Equal(t, AgentAdvisor, state.Active())

	require.Len(t, state.Messages, 2)
	assert.Equal(t, ai.RoleUser, state.Messages[0].Role)
	assert.Equal(t, AgentAdvisor, state.Messages[1].Agent)
}

func TestTurnExtractsSkillsForAdvisor(t *testing.T) {
	llm := &scriptedLLM{
		extractReply: `{"skills": ["python", "sql"]}`,
		script:       []scriptStep{{response: &ai.ChatResponse{Content: "Nice skills."}}},
	}
	o := newTestOrchestrator(t, llm)

	state := &ConversationState{}
	_, err := o.Turn(context.Background(), state, "I know Python and SQL")
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "sql"}, state.CurrentSkills)

	// The advisor sees the extracted skills in its context.
	require.Len(t, llm.calls, 1)
	assert.Contains(t, llm.calls[0].system, "python, sql")
}

func TestTurnExtractionSkippedOnceSkillsKnown(t *testing.T) {
	llm := &scriptedLLM{
		extractReply: `{"skills": ["should-not-run"]}`,
		script:       []scriptStep{{response: &ai.ChatResponse{Content: "ok"}}},
	}
	o := newTestOrchestrator(t, llm)

	state := &ConversationState{CurrentSkills: []string{"python"}}
	_, err := o.Turn(context.Background(), state, "and I also know SQL")
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, state.CurrentSkills)
}

func TestTurnToolCallLoop(t *testing.T) {
	match := &echoTool{name: tools.RoleMatchName, payload: `{"role":"Backend Engineer","description":"builds services"}`}
	llm := &scriptedLLM{script: []scriptStep{
		{response: &ai.ChatResponse{ToolCalls: []ai.ToolCall{{ID: "c1", Name: tools.RoleMatchName, Arguments: `{"skills":["go"]}`}}}},
		{response: &ai.ChatResponse{Content: "You look like a Backend Engineer."}},
	}}
	o := newTestOrchestrator(t, llm, match)

	state := &ConversationState{}
	reply, err := o.Turn(context.Background(), state, "what fits me?")
	require.NoError(t, err)
	assert.Equal(t, "You look like a Backend Engineer.", reply)
	assert.Equal(t, 1, match.calls)

	// The role-match side effect updates conversation state.
	assert.Equal(t, "Backend Engineer", state.IdentifiedRole)

	// Transcript: user, assistant(tool calls), tool result, assistant.
	require.Len(t, state.Messages, 4)
	assert.Equal(t, ai.RoleTool, state.Messages[2].Role)
	assert.Equal(t, "c1", state.Messages[2].ToolCallID)
}

func TestTurnMalformedToolResultSkipsRoleUpdate(t *testing.T) {
	match := &echoTool{name: tools.RoleMatchName, payload: `not json at all`}
	llm := &scriptedLLM{script: []scriptStep{
		{response: &ai.ChatResponse{ToolCalls: []ai.ToolCall{{ID: "c1", Name: tools.RoleMatchName, Arguments: `{}`}}}},
		{response: &ai.ChatResponse{Content: "hmm"}},
	}}
	o := newTestOrchestrator(t, llm, match)

	state := &ConversationState{}
	reply, err := o.Turn(context.Background(), state, "what fits me?")
	require.NoError(t, err)
	assert.Equal(t, "hmm", reply)

	// The unparseable payload still goes back to the model as tool output;
	// only the identified-role side effect is skipped.
	assert.Empty(t, state.IdentifiedRole)
	require.Len(t, state.Messages, 4)
	assert.Equal(t, ai.RoleTool, state.Messages[2].Role)
	assert.Equal(t, "not json at all", state.Messages[2].Content)
}

func TestTurnHandoffSwitchesToScoutOnce(t *testing.T) {
	llm := &scriptedLLM{script: []scriptStep{
		{response: &ai.ChatResponse{Handoff: true}},
		{response: &ai.ChatResponse{Content: "Where do you want to work?"}},
	}}
	o := newTestOrchestrator(t, llm)

	state := &ConversationState{IdentifiedRole: "Data Scientist"}
	reply, err := o.Turn(context.Background(), state, "show me jobs")
	require.NoError(t, err)
	assert.Equal(t, "Where do you want to work?", reply)
	assert.Equal(t, AgentScout, state.Active())

	// First call was the advisor (with handoff tool bound), second the scout
	// (without it, and with the identified role in the prompt).
	require.Len(t, llm.calls, 2)
	assert.Contains(t, llm.calls[0].tools, ai.HandoffToolName)
	assert.NotContains(t, llm.calls[1].tools, ai.HandoffToolName)
	assert.Contains(t, llm.calls[1].system, "Data Scientist")
}

func TestTurnHandoffWithToolCallsRunsToolsFirst(t *testing.T) {
	match := &echoTool{name: tools.RoleMatchName, payload: `{"role":"Data Scientist"}`}
	llm := &scriptedLLM{script: []scriptStep{
		// The advisor confirms the handoff and calls match_role in the same
		// response: the tool must run before the scout takes over.
		{response: &ai.ChatResponse{
			Handoff:   true,
			ToolCalls: []ai.ToolCall{{ID: "c1", Name: tools.RoleMatchName, Arguments: `{"skills":["python"]}`}},
		}},
		{response: &ai.ChatResponse{Content: "Here are Data Scientist roles."}},
	}}
	o := newTestOrchestrator(t, llm, match)

	state := &ConversationState{}
	reply, err := o.Turn(context.Background(), state, "find me something")
	require.NoError(t, err)
	assert.Equal(t, "Here are Data Scientist roles.", reply)
	assert.Equal(t, 1, match.calls)
	assert.Equal(t, AgentScout, state.Active())

	// The scout picked up the role the tool call produced.
	assert.Equal(t, "Data Scientist", state.IdentifiedRole)
	require.Len(t, llm.calls, 2)
	assert.Contains(t, llm.calls[1].system, "Data Scientist")
}

func TestTurnScoutSkipsExtractionAndAdvisor(t *testing.T) {
	llm := &scriptedLLM{
		extractReply: `{"skills": ["should-not-run"]}`,
		script:       []scriptStep{{response: &ai.ChatResponse{Content: "Here are some listings."}}},
	}
	o := newTestOrchestrator(t, llm)

	state := &ConversationState{ActiveAgent: AgentScout}
	_, err := o.Turn(context.Background(), state, "jobs in Berlin please")
	require.NoError(t, err)

	assert.Empty(t, state.CurrentSkills, "extraction never runs in the scout phase")
	assert.Equal(t, AgentScout, state.Active())
	require.Len(t, llm.calls, 1)
	assert.NotContains(t, llm.calls[0].tools, ai.HandoffToolName)
}

func TestTurnScoutHandoffFlagIgnored(t *testing.T) {
	// A stray handoff flag while the scout is active must not loop or crash;
	// the scout has no handoff tool, so the response is treated as final.
	llm := &scriptedLLM{script: []scriptStep{
		{response: &ai.ChatResponse{Content: "still scouting", Handoff: true}},
	}}
	o := newTestOrchestrator(t, llm)

	state := &ConversationState{ActiveAgent: AgentScout}
	reply, err := o.Turn(context.Background(), state, "more jobs")
	require.NoError(t, err)
	assert.Equal(t, "still scouting", reply)
	assert.Equal(t, AgentScout, state.Active())
}

func TestTurnProviderFailureRollsBack(t *testing.T) {
	llm := &scriptedLLM{script: []scriptStep{
		{err: errors.New("provider down")},
	}}
	o := newTestOrchestrator(t, llm)

	state := &ConversationState{}
	reply, err := o.Turn(context.Background(), state, "hello")
	require.NoError(t, err)
	assert.Equal(t, failureReply, reply)

	// The user message survives, partial work does not, and the failure is
	// visible in the transcript.
	require.Len(t, state.Messages, 2)
	assert.Equal(t, ai.RoleUser, state.Messages[0].Role)
	assert.Equal(t, failureReply, state.Messages[1].Content)
	assert.Equal(t, AgentAdvisor, state.Active())
}

func TestTurnFailureAfterHandoffRestoresAdvisor(t *testing.T) {
	llm := &scriptedLLM{script: []scriptStep{
		{response: &ai.ChatResponse{Handoff: true}},
		{err: errors.New("provider down")},
	}}
	o := newTestOrchestrator(t, llm)

	state := &ConversationState{}
	reply, err := o.Turn(context.Background(), state, "show me jobs")
	require.NoError(t, err)
	assert.Equal(t, failureReply, reply)
	assert.Equal(t, AgentAdvisor, state.Active(), "half-finished handoff rolls back")
}

func TestTurnStepBudget(t *testing.T) {
	tool := &echoTool{name: tools.RoleMatchName, payload: `{}`}
	// The model asks for the same tool forever.
	var script []scriptStep
	for i := 0; i < maxSteps+1; i++ {
		script = append(script, scriptStep{response: &ai.ChatResponse{
			ToolCalls: []ai.ToolCall{{ID: "x", Name: tools.RoleMatchName, Arguments: `{}`}},
		}})
	}
	llm := &scriptedLLM{script: script}
	o := newTestOrchestrator(t, llm, tool)

	state := &ConversationState{}
	reply, err := o.Turn(context.Background(), state, "loop")
	require.NoError(t, err)
	assert.Equal(t, failureReply, reply)
	assert.Len(t, state.Messages, 2, "only the user message and the failure reply remain")
}

func TestStateRoundTrip(t *testing.T) {
	state := &ConversationState{
		Messages: []Message{
			{Role: ai.RoleUser, Content: "hi"},
			{Role: ai.RoleAssistant, Content: "hello", Agent: AgentAdvisor},
		},
		CurrentSkills:  []string{"go"},
		IdentifiedRole: "Backend Engineer",
		ActiveAgent:    AgentScout,
	}
	data, err := state.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalState(data)
	require.NoError(t, err)
	assert.Equal(t, state, restored)
}
