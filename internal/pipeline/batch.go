package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canoncourt/canoncourt/internal/corpus"
	"github.com/canoncourt/canoncourt/internal/worker"
)

// Case is one backstory to judge against the novel.
type Case struct {
	Character string `yaml:"character"`
	Backstory string `yaml:"backstory"`
}

// CaseResult pairs a case with its run outcome. Err is set when the run
// aborted (extraction failure); per-claim failures surface inside Result.
type CaseResult struct {
	Case   Case
	Result *Result
	Err    error
}

// GetError reports whether the case run aborted
func (r *CaseResult) GetError() error { return r.Err }

// ReadCases loads backstory cases from a YAML file: a list of
// character/backstory pairs. Cases with an empty backstory are skipped.
func ReadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}

	var raw []Case
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}

	cases := make([]Case, 0, len(raw))
	for _, c := range raw {
		if strings.TrimSpace(c.Backstory) == "" {
			continue
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// BatchRunner judges multiple backstories against one novel concurrently.
// All cases share the pipeline's rate budget.
type BatchRunner struct {
	pipeline    *Pipeline
	concurrency int
}

// NewBatchRunner creates a batch runner over an existing pipeline
func NewBatchRunner(p *Pipeline, concurrency int) *BatchRunner {
	return &BatchRunner{pipeline: p, concurrency: concurrency}
}

// Run evaluates all cases and returns results in case order
func (b *BatchRunner) Run(ctx context.Context, novel *corpus.Novel, cases []Case) []*CaseResult {
	if len(cases) == 0 {
		return []*CaseResult{}
	}

	pool := worker.NewPool(b.concurrency)
	pool.Start()
	for i, c := range cases {
		pool.Submit(&caseJob{ctx: ctx, pos: i, c: c, novel: novel, pipeline: b.pipeline})
	}

	ordered := make([]*caseOutcome, 0, len(cases))
	for _, r := range pool.Wait() {
		ordered = append(ordered, r.(*caseOutcome))
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].pos < ordered[j].pos })

	results := make([]*CaseResult, len(ordered))
	for i, o := range ordered {
		results[i] = &o.CaseResult
	}
	return results
}

// RunFile reads cases from a YAML file and evaluates them
func (b *BatchRunner) RunFile(ctx context.Context, novel *corpus.Novel, path string) ([]*CaseResult, error) {
	cases, err := ReadCases(path)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx, novel, cases), nil
}

type caseJob struct {
	ctx      context.Context
	pos      int
	c        Case
	novel    *corpus.Novel
	pipeline *Pipeline
}

type caseOutcome struct {
	pos int
	CaseResult
}

func (j *caseJob) Execute(context.Context) worker.Result {
	res, err := j.pipeline.Evaluate(j.ctx, j.novel, j.c.Backstory)
	return &caseOutcome{pos: j.pos, CaseResult: CaseResult{Case: j.c, Result: res, Err: err}}
}
