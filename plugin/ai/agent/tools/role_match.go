package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/plugin/ai/cache"
	"github.com/careerscout/careerscout/plugin/ai/hybrid"
	"github.com/careerscout/careerscout/store"
)

// RoleMatchName is the tool the advisor calls to resolve skills to a role.
const RoleMatchName = "match_role"

// RoleMatchResult is the payload shape of a successful match. The
// orchestrator reads Role back out of it to update conversation state.
type RoleMatchResult struct {
	Role          string   `json:"role,omitempty"`
	Description   string   `json:"description,omitempty"`
	MatchScore    int      `json:"match_score,omitempty"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
	Message       string   `json:"message,omitempty"`
}

type RoleMatchTool struct {
	coordinator *hybrid.Coordinator
	store       *store.Store
}

func NewRoleMatchTool(coordinator *hybrid.Coordinator, store *store.Store) *RoleMatchTool {
	return &RoleMatchTool{coordinator: coordinator, store: store}
}

func (t *RoleMatchTool) Name() string { return RoleMatchName }

func (t *RoleMatchTool) Description() string {
	return "Find the career role that best matches a list of skills. Call this once you know the user's skills."
}

func (t *RoleMatchTool) Parameters() map[string]any {
	return map[string]any{
		"skills": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "The user's skills, lowercase",
		},
	}
}

func (t *RoleMatchTool) Execute(ctx context.Context, arguments json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Skills []string `json:"skills"`
	}
	if err := json.Unmarshal(arguments, &args); err != nil {
		return nil, errors.Wrap(err, "invalid match_role arguments")
	}
	skills := cache.NormalizeSkills(args.Skills)
	if len(skills) == 0 {
		return json.Marshal(RoleMatchResult{Message: "no skills provided; ask the user about their skills first"})
	}

	return t.coordinator.RoleMatch(ctx, skills, func(ctx context.Context) (json.RawMessage, bool, error) {
		match, err := t.store.MatchRoleBySkills(ctx, skills)
		if err != nil {
			return nil, false, err
		}
		if match == nil {
			payload, err := json.Marshal(RoleMatchResult{Message: "no role matches these skills"})
			return payload, false, err
		}
		payload, err := json.Marshal(RoleMatchResult{
			Role:          match.RoleName,
			Description:   match.Description,
			MatchScore:    match.MatchCount,
			MatchedSkills: match.MatchedSkills,
		})
		return payload, true, err
	})
}

var _ Tool = (*RoleMatchTool)(nil)
