package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/canoncourt/canoncourt/internal/model"
	"github.com/canoncourt/canoncourt/internal/pipeline"
)

func TestCaseSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Captain Ahab", "captain-ahab"},
		{"Elizabeth Bennet", "elizabeth-bennet"},
		{"D'Artagnan", "d-artagnan"},
		{"---", "case"},
		{"", "case"},
		{strings.Repeat("a", 100), strings.Repeat("a", 64)},
	}

	for _, tt := range tests {
		if got := caseSlug(tt.name); got != tt.want {
			t.Errorf("caseSlug(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	res := &pipeline.Result{
		Book: "whale",
		Claims: []model.Claim{
			{ID: "c1", Text: "Ahab was born in 1850."},
			{ID: "c2", Text: "Ahab commanded the Pequod."},
		},
		Decision: model.Decision{
			Overall: model.OverallInconsistent,
			Verdicts: []model.Verdict{
				{ClaimID: "c1", Label: model.LabelInconsistent, Confidence: 0.9, Rationale: "The novel states 1820."},
				{ClaimID: "c2", Label: model.LabelConsistent, Confidence: 0.8, Rationale: "Directly supported."},
			},
			Rule: "confident-contradiction:c1",
		},
		Elapsed: 3 * time.Second,
		Calls:   7,
	}

	var sb strings.Builder
	renderSummary(&sb, res)
	out := sb.String()

	for _, want := range []string{
		"whale",
		"INCONSISTENT",
		"Ahab was born in 1850.",
		"The novel states 1820.",
		"0.90",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestApplyProviderEnv_Ollama(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	applyProviderEnv(&cfg)

	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Errorf("base URL = %q, want env value", cfg.LLM.BaseURL)
	}
}

func TestApplyProviderEnv_GroqKeySetsEndpoint(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	applyProviderEnv(&cfg)

	if cfg.LLM.APIKey != "gsk_test" {
		t.Errorf("api key = %q, want gsk_test", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != groqBaseURL {
		t.Errorf("base URL = %q, want %q", cfg.LLM.BaseURL, groqBaseURL)
	}
}
