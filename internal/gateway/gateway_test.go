package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canoncourt/canoncourt/internal/llm"
	"github.com/canoncourt/canoncourt/internal/model"
)

// fakeProvider replays a scripted sequence of outcomes
type fakeProvider struct {
	script []error // nil entry means success
	calls  int
	text   string
}

func (f *fakeProvider) Name() string                       { return "fake" }
func (f *fakeProvider) IsAvailable(_ context.Context) bool { return true }

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.script) && f.script[idx] != nil {
		return nil, f.script[idx]
	}
	text := f.text
	if text == "" {
		text = "ok"
	}
	return &llm.CompletionResponse{Text: text, Model: req.Model}, nil
}

// countingBudget counts consumed units without rate limiting
type countingBudget struct {
	consumed int
}

func (b *countingBudget) Wait(_ context.Context, _ string) error {
	b.consumed++
	return nil
}

func testConfig() (model.LLMConfig, model.GatewayConfig) {
	llmCfg := model.LLMConfig{
		Model:     "default-model",
		MaxTokens: 100,
		Models: map[model.Stage]string{
			model.StageJudge: "judge-model",
		},
	}
	gwCfg := model.GatewayConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		CallTimeout: time.Second,
	}
	return llmCfg, gwCfg
}

func TestGateway_TransientTwiceThenSuccess(t *testing.T) {
	provider := &fakeProvider{
		script: []error{
			&llm.APIError{StatusCode: 503, Message: "upstream down"},
			&llm.APIError{StatusCode: 503, Message: "upstream down"},
			nil,
		},
	}
	budget := &countingBudget{}
	llmCfg, gwCfg := testConfig()
	g := New(provider, budget, llmCfg, gwCfg)

	text, err := g.InvokeModel(context.Background(), "m", "prompt", 100, 0.1)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if text != "ok" {
		t.Errorf("expected completion text, got %q", text)
	}
	if provider.calls != 3 {
		t.Errorf("expected 3 provider calls, got %d", provider.calls)
	}
	// Each attempt spends one budget unit, success or not
	if budget.consumed != 3 {
		t.Errorf("expected 3 budget units consumed, got %d", budget.consumed)
	}
}

func TestGateway_ModelErrorNotRetried(t *testing.T) {
	provider := &fakeProvider{
		script: []error{&llm.APIError{StatusCode: 400, Message: "bad model"}},
	}
	budget := &countingBudget{}
	llmCfg, gwCfg := testConfig()
	g := New(provider, budget, llmCfg, gwCfg)

	_, err := g.InvokeModel(context.Background(), "m", "prompt", 100, 0.1)
	if !errors.Is(err, ErrModel) {
		t.Fatalf("expected ErrModel, got %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("expected exactly 1 call for non-retryable error, got %d", provider.calls)
	}
	if budget.consumed != 1 {
		t.Errorf("expected 1 budget unit, got %d", budget.consumed)
	}
}

func TestGateway_RateLimitExhaustsAttempts(t *testing.T) {
	rateLimited := &llm.APIError{StatusCode: 429, Message: "quota"}
	provider := &fakeProvider{
		script: []error{rateLimited, rateLimited, rateLimited},
	}
	budget := &countingBudget{}
	llmCfg, gwCfg := testConfig()
	gwCfg.MaxAttempts = 3
	g := New(provider, budget, llmCfg, gwCfg)

	_, err := g.InvokeModel(context.Background(), "m", "prompt", 100, 0.1)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after exhaustion, got %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", provider.calls)
	}
}

func TestGateway_StageRouting(t *testing.T) {
	provider := &fakeProvider{}
	budget := &countingBudget{}
	llmCfg, gwCfg := testConfig()
	g := New(provider, budget, llmCfg, gwCfg)

	if _, err := g.Invoke(context.Background(), model.StageJudge, "p"); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if _, err := g.Invoke(context.Background(), model.StageProsecutor, "p"); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}

	total, byModel := g.Stats()
	if total != 2 {
		t.Errorf("expected 2 calls, got %d", total)
	}
	if byModel["judge-model"] != 1 {
		t.Errorf("expected judge stage routed to judge-model, got %v", byModel)
	}
	if byModel["default-model"] != 1 {
		t.Errorf("expected unmapped stage routed to default model, got %v", byModel)
	}
}

func TestBackoffCeiling(t *testing.T) {
	tests := []struct {
		attempt int
		base    time.Duration
		want    time.Duration
	}{
		{1, time.Second, time.Second},
		{2, time.Second, 2 * time.Second},
		{3, time.Second, 4 * time.Second},
		{4, time.Second, 8 * time.Second},
		{10, time.Second, maxBackoff},
		{60, time.Second, maxBackoff}, // shift overflow guard
	}

	for _, tt := range tests {
		if got := backoffCeiling(tt.attempt, tt.base); got != tt.want {
			t.Errorf("backoffCeiling(%d, %v) = %v, want %v", tt.attempt, tt.base, got, tt.want)
		}
	}
}

func TestJitter_WithinCeiling(t *testing.T) {
	ceiling := 10 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := jitter(ceiling)
		if d <= 0 || d > ceiling {
			t.Fatalf("jitter out of range: %v", d)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"quota", &llm.APIError{StatusCode: 429}, ErrRateLimited},
		{"server error", &llm.APIError{StatusCode: 500}, ErrTransient},
		{"gateway timeout", &llm.APIError{StatusCode: 504}, ErrTransient},
		{"request timeout", &llm.APIError{StatusCode: 408}, ErrTransient},
		{"bad request", &llm.APIError{StatusCode: 400}, ErrModel},
		{"auth", &llm.APIError{StatusCode: 401}, ErrModel},
		{"deadline", context.DeadlineExceeded, ErrTransient},
		{"unknown", errors.New("boom"), ErrModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
