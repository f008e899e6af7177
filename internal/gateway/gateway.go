package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/canoncourt/canoncourt/internal/llm"
	"github.com/canoncourt/canoncourt/internal/model"
)

const maxBackoff = 30 * time.Second

// Budget is the shared rate budget consumed by every model call.
// *worker.Limiter satisfies it.
type Budget interface {
	Wait(ctx context.Context, model string) error
}

// Gateway is the single access point to the hosted model API. It routes
// stages to models, consumes one budget unit per attempt, and retries
// rate-limit and transient failures with exponential backoff and full jitter.
type Gateway struct {
	provider llm.Provider
	budget   Budget
	llmCfg   model.LLMConfig
	cfg      model.GatewayConfig

	mu    sync.Mutex
	calls map[string]int
	total int
}

// New creates a gateway over the given provider and shared budget
func New(provider llm.Provider, budget Budget, llmCfg model.LLMConfig, cfg model.GatewayConfig) *Gateway {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}

	return &Gateway{
		provider: provider,
		budget:   budget,
		llmCfg:   llmCfg,
		cfg:      cfg,
		calls:    make(map[string]int),
	}
}

// Invoke issues a prompt to the model routed for the stage, using configured
// token and temperature limits
func (g *Gateway) Invoke(ctx context.Context, stage model.Stage, prompt string) (string, error) {
	return g.InvokeModel(ctx, g.llmCfg.ModelFor(stage), prompt, g.llmCfg.MaxTokens, g.llmCfg.Temperature)
}

// InvokeModel issues a prompt to a named model. Each attempt consumes one
// unit of the shared budget whether or not the call succeeds.
func (g *Gateway) InvokeModel(ctx context.Context, modelName, prompt string, maxTokens int, temperature float64) (string, error) {
	var lastErr error

	for attempt := 0; attempt < g.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := jitter(backoffCeiling(attempt, g.cfg.BaseDelay))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
			case <-time.After(delay):
			}
		}

		if err := g.budget.Wait(ctx, modelName); err != nil {
			return "", fmt.Errorf("%w: budget wait: %v", ErrTransient, err)
		}

		text, err := g.attempt(ctx, modelName, prompt, maxTokens, temperature)
		if err == nil {
			return text, nil
		}

		kind := classify(err)
		lastErr = fmt.Errorf("%w: %v", kind, err)

		if errors.Is(kind, ErrModel) {
			return "", lastErr
		}
	}

	return "", fmt.Errorf("attempts exhausted after %d tries: %w", g.cfg.MaxAttempts, lastErr)
}

// attempt performs one provider call under the configured timeout
func (g *Gateway) attempt(ctx context.Context, modelName, prompt string, maxTokens int, temperature float64) (string, error) {
	callCtx := ctx
	if g.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}

	g.record(modelName)

	resp, err := g.provider.Complete(callCtx, llm.CompletionRequest{
		Model:       modelName,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if resp.Text == "" {
		return "", fmt.Errorf("empty completion from %s", modelName)
	}
	return resp.Text, nil
}

func (g *Gateway) record(modelName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[modelName]++
	g.total++
}

// Stats returns total call count and per-model breakdown
func (g *Gateway) Stats() (int, map[string]int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	byModel := make(map[string]int, len(g.calls))
	for k, v := range g.calls {
		byModel[k] = v
	}
	return g.total, byModel
}

// backoffCeiling returns the maximum delay before retry attempt n.
// Deterministic: base doubled per attempt, capped at maxBackoff.
func backoffCeiling(attempt int, base time.Duration) time.Duration {
	d := base << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// jitter draws a delay uniformly from (0, ceiling] (full jitter)
func jitter(ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(ceiling))) + 1
}
