package model

import "time"

// Stage names a deliberation stage for model routing and rate accounting
type Stage string

const (
	StageClaimExtraction Stage = "claim_extraction"
	StageProsecutor      Stage = "prosecutor"
	StageDefense         Stage = "defense"
	StageJudge           Stage = "judge"
)

// Config holds the complete resolved configuration. The deliberation core
// receives this as a value; it never reads config files itself.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Corpus      CorpusConfig      `yaml:"corpus"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Cache       CacheConfig       `yaml:"cache"`
}

// LLMConfig selects the provider and routes stages to models
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai", "anthropic", "ollama"
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"` // Custom endpoint (Groq, Ollama, proxies)

	// Models maps stage name to model name. Missing stages fall back to Model.
	Models map[Stage]string `yaml:"models,omitempty"`
	Model  string           `yaml:"model"` // Default model for unmapped stages

	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty"`
}

// ModelFor returns the model routed to the given stage
func (c LLMConfig) ModelFor(stage Stage) string {
	if m, ok := c.Models[stage]; ok && m != "" {
		return m
	}
	return c.Model
}

// GatewayConfig bounds the shared rate budget and retry policy
type GatewayConfig struct {
	RequestsPerMinute float64       `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	CallTimeout       time.Duration `yaml:"call_timeout"`
}

// CorpusConfig controls novel ingestion and chunking
type CorpusConfig struct {
	ChunkWords   int    `yaml:"chunk_words"`   // Words per passage
	OverlapWords int    `yaml:"overlap_words"` // Overlap between adjacent passages
	MinTailWords int    `yaml:"min_tail_words"`
	UserAgent    string `yaml:"user_agent"` // For fetching novels by URL
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// RetrievalConfig bounds evidence lookup per claim
type RetrievalConfig struct {
	MaxPassages   int     `yaml:"max_passages"`   // Evidence cap per claim
	MinSimilarity float64 `yaml:"min_similarity"` // Passages below this score are dropped
}

// ScoringConfig controls verdict aggregation
type ScoringConfig struct {
	// ConfidenceThreshold: an inconsistent verdict above this confidence
	// makes the whole backstory inconsistent.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// HardThreshold: prosecutor contradictions above this confidence skip
	// the judge's model call entirely.
	HardThreshold float64 `yaml:"hard_threshold"`
	MaxClaims     int     `yaml:"max_claims"` // Cap on claims per backstory
}

// ConcurrencyConfig bounds parallel claim tasks
type ConcurrencyConfig struct {
	ClaimWorkers int `yaml:"claim_workers"`
	BatchWorkers int `yaml:"batch_workers"`
}

// CacheConfig controls the passage index cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir,omitempty"` // Disk cache directory ("" = memory only)
	TTL     time.Duration `yaml:"ttl"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "llama-3.3-70b-versatile",
			MaxTokens:   1024,
			Temperature: 0.1,
			Models: map[Stage]string{
				StageClaimExtraction: "llama-3.3-70b-versatile",
				StageProsecutor:      "llama-3.3-70b-versatile",
				StageDefense:         "llama-3.1-8b-instant",
				StageJudge:           "llama-3.3-70b-versatile",
			},
		},
		Gateway: GatewayConfig{
			RequestsPerMinute: 30,
			Burst:             5,
			MaxAttempts:       5,
			BaseDelay:         time.Second,
			CallTimeout:       60 * time.Second,
		},
		Corpus: CorpusConfig{
			ChunkWords:   300,
			OverlapWords: 50,
			MinTailWords: 50,
			UserAgent:    "Canoncourt/0.1 (+https://github.com/canoncourt/canoncourt)",
			FetchTimeout: 2 * time.Minute,
			MaxBodyBytes: 20_000_000,
		},
		Retrieval: RetrievalConfig{
			MaxPassages:   3,
			MinSimilarity: 0.05,
		},
		Scoring: ScoringConfig{
			ConfidenceThreshold: 0.6,
			HardThreshold:       0.7,
			MaxClaims:           10,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers: 4,
			BatchWorkers: 2,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
	}
}
