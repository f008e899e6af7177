// Package pipeline orchestrates a full deliberation run: claim extraction,
// per-claim evidence retrieval and debate, and verdict aggregation.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/canoncourt/canoncourt/internal/cache"
	"github.com/canoncourt/canoncourt/internal/corpus"
	"github.com/canoncourt/canoncourt/internal/debate"
	"github.com/canoncourt/canoncourt/internal/extract"
	"github.com/canoncourt/canoncourt/internal/gateway"
	"github.com/canoncourt/canoncourt/internal/llm"
	"github.com/canoncourt/canoncourt/internal/model"
	"github.com/canoncourt/canoncourt/internal/retrieve"
	"github.com/canoncourt/canoncourt/internal/score"
	"github.com/canoncourt/canoncourt/internal/worker"
)

// Pipeline runs one backstory against one novel. It is safe for concurrent
// use: per-run state lives on the stack of Evaluate.
type Pipeline struct {
	extractor  *extract.ClaimExtractor
	prosecutor *debate.Advocate
	defense    *debate.Advocate
	judge      *debate.Judge
	loader     *corpus.Loader
	cache      cache.Cache
	gw         *gateway.Gateway // nil when built with injected stages
	cfg        model.Config
}

// New wires the full pipeline from resolved configuration: provider, shared
// rate budget, gateway, and all deliberation stages.
func New(cfg model.Config) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, int(cfg.Gateway.CallTimeout/time.Second)))
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	budget := worker.NewLimiter(cfg.Gateway.RequestsPerMinute, cfg.Gateway.Burst)
	gw := gateway.New(provider, budget, cfg.LLM, cfg.Gateway)

	return &Pipeline{
		extractor:  extract.NewClaimExtractor(gw, cfg.Scoring.MaxClaims),
		prosecutor: debate.NewProsecutor(gw),
		defense:    debate.NewDefense(gw),
		judge:      debate.NewJudge(gw, cfg.Scoring.HardThreshold),
		loader:     corpus.NewLoader(cfg.Corpus),
		cache:      newIndexCache(cfg.Cache),
		gw:         gw,
		cfg:        cfg,
	}, nil
}

func newIndexCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir != "" {
		return cache.NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
	}
	return cache.NewMemoryCache(cfg.TTL, 10*time.Minute)
}

// Result is the outcome of one backstory run.
type Result struct {
	Book     string         `json:"book"`
	Claims   []model.Claim  `json:"claims"`
	Decision model.Decision `json:"decision"`
	Elapsed  time.Duration  `json:"elapsed_ns"`
	Calls    int            `json:"model_calls"`
	ByModel  map[string]int `json:"calls_by_model,omitempty"`
}

// LoadNovel ingests a novel from a local path or URL and chunks it into
// passages.
func (p *Pipeline) LoadNovel(ctx context.Context, source, book string) (*corpus.Novel, error) {
	return p.loader.Load(ctx, source, book)
}

// Evaluate judges one backstory against an already-loaded novel. Claim
// extraction failure aborts the run; any later per-claim failure downgrades
// that claim's verdict to undetermined and the run continues.
func (p *Pipeline) Evaluate(ctx context.Context, novel *corpus.Novel, backstory string) (*Result, error) {
	start := time.Now()

	claims, err := p.extractor.Extract(ctx, backstory)
	if err != nil {
		return nil, err
	}

	res := &Result{Book: novel.Book, Claims: claims}

	if len(claims) == 0 {
		// Nothing checkable: vacuously consistent, no further model calls.
		res.Decision = score.Aggregate(nil, p.cfg.Scoring.ConfidenceThreshold)
		res.Elapsed = time.Since(start)
		p.fillStats(res)
		return res, nil
	}

	locator := retrieve.NewLocator(retrieve.LoadOrBuildIndex(p.cache, novel, p.cfg.Cache.TTL), p.cfg.Retrieval)

	pool := worker.NewPool(p.cfg.Concurrency.ClaimWorkers)
	pool.Start()
	for i, claim := range claims {
		pool.Submit(&claimJob{
			ctx:     ctx,
			pos:     i,
			claim:   claim,
			locator: locator,
			pros:    p.prosecutor,
			def:     p.defense,
			judge:   p.judge,
		})
	}

	// Pool results arrive in completion order; restore claim order.
	results := make([]*claimResult, 0, len(claims))
	for _, r := range pool.Wait() {
		results = append(results, r.(*claimResult))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].pos < results[j].pos })

	verdicts := make([]model.Verdict, len(results))
	for i, r := range results {
		verdicts[i] = r.verdict
	}

	res.Decision = score.Aggregate(verdicts, p.cfg.Scoring.ConfidenceThreshold)
	res.Elapsed = time.Since(start)
	p.fillStats(res)
	return res, nil
}

// EvaluateSource loads the novel and evaluates the backstory in one step.
func (p *Pipeline) EvaluateSource(ctx context.Context, source, book, backstory string) (*Result, error) {
	novel, err := p.LoadNovel(ctx, source, book)
	if err != nil {
		return nil, fmt.Errorf("load novel: %w", err)
	}
	return p.Evaluate(ctx, novel, backstory)
}

func (p *Pipeline) fillStats(res *Result) {
	if p.gw == nil {
		return
	}
	res.Calls, res.ByModel = p.gw.Stats()
}

// claimJob takes one claim through retrieval, debate, and judgment. It never
// fails the pool: stage errors are folded into an undetermined verdict.
type claimJob struct {
	ctx     context.Context
	pos     int
	claim   model.Claim
	locator *retrieve.Locator
	pros    *debate.Advocate
	def     *debate.Advocate
	judge   *debate.Judge
}

type claimResult struct {
	pos     int
	verdict model.Verdict
	err     error // advocate failure that forced the downgrade, if any
}

func (r *claimResult) GetError() error { return r.err }

func (j *claimJob) Execute(context.Context) worker.Result {
	evidence := j.locator.Locate(j.claim)

	// Advocates argue independently and concurrently. Neither sees the
	// other's text.
	var (
		wg              sync.WaitGroup
		prosArg, defArg model.Argument
		prosErr, defErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		prosArg, prosErr = j.pros.Argue(j.ctx, j.claim, evidence)
	}()
	go func() {
		defer wg.Done()
		defArg, defErr = j.def.Argue(j.ctx, j.claim, evidence)
	}()
	wg.Wait()

	if prosErr != nil || defErr != nil {
		err := prosErr
		if err == nil {
			err = defErr
		}
		return &claimResult{
			pos: j.pos,
			verdict: model.Verdict{
				ClaimID:    j.claim.ID,
				Label:      model.LabelUndetermined,
				Confidence: 0,
				Rationale:  fmt.Sprintf("Debate stage failed: %v", err),
			},
			err: err,
		}
	}

	return &claimResult{pos: j.pos, verdict: j.judge.Deliberate(j.ctx, j.claim, evidence, prosArg, defArg)}
}
