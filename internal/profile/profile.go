package profile

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the runtime configuration for the careerscout process.
// Every field is settable through a CAREERSCOUT_* environment variable.
type Profile struct {
	// Mode can be "prod" or "dev".
	Mode string
	// Driver is the listing/role store driver ("postgres" or "sqlite").
	Driver string
	// DSN points to the listing/role store. For sqlite this is a file path.
	DSN string

	// RedisAddr enables the Redis exact-cache tier when non-empty.
	// When empty the process falls back to the in-memory exact cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MetricsAddr is the bind address for the Prometheus endpoint.
	MetricsAddr string

	// Reasoning/embedding provider (OpenAI-compatible).
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string
	// EmbeddingDim is the dimensionality of the embedding vectors. All
	// semantic-cache entries and listing embeddings share this value.
	EmbeddingDim int

	// Semantic-cache distance thresholds (cosine distance, lower = stricter).
	RoleMatchThreshold  float64
	JobSearchThreshold  float64
	ExtractionThreshold float64

	// Exact-cache TTLs per access pattern.
	RoleMatchTTL time.Duration
	JobSearchTTL time.Duration
	// SemanticTTL is the independent expiry for semantic-cache entries.
	SemanticTTL time.Duration
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Load reads the profile from the environment.
func Load() (*Profile, error) {
	v := viper.New()
	v.SetEnvPrefix("careerscout")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("driver", "sqlite")
	v.SetDefault("dsn", "careerscout.db")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("metrics_addr", ":8000")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("chat_model", "gpt-4o-mini")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("embedding_dim", 1536)
	v.SetDefault("role_match_threshold", 0.10)
	v.SetDefault("job_search_threshold", 0.15)
	v.SetDefault("extraction_threshold", 0.15)
	v.SetDefault("role_match_ttl", "1h")
	v.SetDefault("job_search_ttl", "10m")
	v.SetDefault("semantic_ttl", "24h")

	p := &Profile{
		Mode:                v.GetString("mode"),
		Driver:              v.GetString("driver"),
		DSN:                 v.GetString("dsn"),
		RedisAddr:           v.GetString("redis_addr"),
		RedisPassword:       v.GetString("redis_password"),
		RedisDB:             v.GetInt("redis_db"),
		MetricsAddr:         v.GetString("metrics_addr"),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		OpenAIBaseURL:       v.GetString("openai_base_url"),
		ChatModel:           v.GetString("chat_model"),
		EmbeddingModel:      v.GetString("embedding_model"),
		EmbeddingDim:        v.GetInt("embedding_dim"),
		RoleMatchThreshold:  v.GetFloat64("role_match_threshold"),
		JobSearchThreshold:  v.GetFloat64("job_search_threshold"),
		ExtractionThreshold: v.GetFloat64("extraction_threshold"),
		RoleMatchTTL:        v.GetDuration("role_match_ttl"),
		JobSearchTTL:        v.GetDuration("job_search_ttl"),
		SemanticTTL:         v.GetDuration("semantic_ttl"),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the profile for inconsistent settings.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		return errors.Errorf("invalid mode %q: expected 'prod' or 'dev'", p.Mode)
	}
	switch p.Driver {
	case "postgres", "sqlite":
	default:
		return errors.Errorf("unknown store driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}
	if p.DSN == "" {
		return errors.New("dsn is required")
	}
	if p.EmbeddingDim <= 0 {
		return errors.Errorf("invalid embedding dimensionality %d", p.EmbeddingDim)
	}
	if p.RoleMatchThreshold <= 0 || p.JobSearchThreshold <= 0 || p.ExtractionThreshold <= 0 {
		return errors.New("semantic thresholds must be positive cosine distances")
	}
	return nil
}
