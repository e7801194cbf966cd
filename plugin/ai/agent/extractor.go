package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/plugin/ai"
	"github.com/careerscout/careerscout/plugin/ai/cache"
	"github.com/careerscout/careerscout/plugin/ai/semcache"
)

// SkillExtractor pulls skill mentions out of free-form user text. Extraction
// is advisory: any failure on this path degrades to "no skills found" so a
// flaky provider never blocks a conversation turn.
type SkillExtractor struct {
	llm       ai.LLMService
	embedder  ai.EmbeddingService
	semantic  semcache.SemanticCache
	threshold float64
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func NewSkillExtractor(llm ai.LLMService, embedder ai.EmbeddingService, semantic semcache.SemanticCache,
	threshold float64, logger *slog.Logger, metrics *observability.Metrics) *SkillExtractor {
	return &SkillExtractor{
		llm:       llm,
		embedder:  embedder,
		semantic:  semantic,
		threshold: threshold,
		logger:    logger,
		metrics:   metrics,
	}
}

type extractedSkills struct {
	Skills []string `json:"skills"`
}

// Extract returns the skills mentioned in text, lowercase and deduplicated.
// Paraphrased inputs are served from the semantic cache.
func (e *SkillExtractor) Extract(ctx context.Context, text string) []string {
	defer e.metrics.TimeStage("extract_skills")()

	normalized := cache.NormalizeTerm(text)
	if normalized == "" {
		return nil
	}

	vector, err := e.embedder.Embed(ctx, normalized)
	if err != nil {
		e.logger.Warn("skill extraction embedding failed", "error", err)
		vector = nil
	}

	if vector != nil {
		payload, ok, err := e.semantic.Lookup(ctx, vector, semcache.CategoryExtraction, e.threshold)
		if err != nil {
			e.logger.Warn("skill extraction cache lookup degraded", "error", err)
		} else if ok {
			var cached extractedSkills
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached.Skills
			}
		}
	}

	skills := e.callModel(ctx, text)
	if len(skills) > 0 && vector != nil {
		payload, err := json.Marshal(extractedSkills{Skills: skills})
		if err == nil {
			if err := e.semantic.Store(ctx, normalized, vector, payload, semcache.CategoryExtraction); err != nil {
				e.logger.Warn("skill extraction cache store failed", "error", err)
			}
		}
	}
	return skills
}

func (e *SkillExtractor) callModel(ctx context.Context, text string) []string {
	reply, err := e.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(extractPrompt),
		ai.UserMessage(text),
	})
	if err != nil {
		e.logger.Warn("skill extraction model call failed", "error", err)
		return nil
	}

	var parsed extractedSkills
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &parsed); err != nil {
		e.logger.Warn("skill extraction returned unparseable output", "error", err, "output", reply)
		return nil
	}
	return cache.NormalizeSkills(parsed.Skills)
}

// stripCodeFences unwraps a ```json ... ``` block if the model added one
// despite the prompt.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
