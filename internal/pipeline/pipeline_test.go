package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/canoncourt/canoncourt/internal/corpus"
	"github.com/canoncourt/canoncourt/internal/debate"
	"github.com/canoncourt/canoncourt/internal/extract"
	"github.com/canoncourt/canoncourt/internal/model"
	"github.com/canoncourt/canoncourt/internal/score"
)

// stageInvoker routes scripted responses by deliberation stage. Safe for
// concurrent calls: advocates for one claim run in parallel.
type stageInvoker struct {
	mu        sync.Mutex
	responses map[model.Stage]string
	errs      map[model.Stage]error
	calls     map[model.Stage]int
}

func newStageInvoker() *stageInvoker {
	return &stageInvoker{
		responses: make(map[model.Stage]string),
		errs:      make(map[model.Stage]error),
		calls:     make(map[model.Stage]int),
	}
}

func (s *stageInvoker) Invoke(_ context.Context, stage model.Stage, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[stage]++
	if err := s.errs[stage]; err != nil {
		return "", err
	}
	return s.responses[stage], nil
}

func (s *stageInvoker) callCount(stage model.Stage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stage]
}

// invoker is the shape shared by every gateway-consuming stage
type invoker interface {
	Invoke(ctx context.Context, stage model.Stage, prompt string) (string, error)
}

func testPipelineWith(inv invoker, cfg model.Config) *Pipeline {
	return &Pipeline{
		extractor:  extract.NewClaimExtractor(inv, cfg.Scoring.MaxClaims),
		prosecutor: debate.NewProsecutor(inv),
		defense:    debate.NewDefense(inv),
		judge:      debate.NewJudge(inv, cfg.Scoring.HardThreshold),
		cfg:        cfg,
	}
}

func testPipeline(inv *stageInvoker) *Pipeline {
	cfg := model.DefaultConfig()
	cfg.Retrieval.MinSimilarity = 0.01
	return testPipelineWith(inv, cfg)
}

func whalingNovel() *corpus.Novel {
	texts := []string{
		"Captain Ahab was born in 1820 on the island of Nantucket.",
		"Ahab commanded the Pequod on three whaling voyages before the white whale took his leg.",
		"Elizabeth visited the manor in spring and met the gardener there.",
	}

	novel := &corpus.Novel{Book: "whale"}
	for i, text := range texts {
		novel.Passages = append(novel.Passages, model.Passage{
			ID:    model.PassageID("whale", i),
			Book:  "whale",
			Index: i,
			Text:  text,
			Words: len(text),
		})
		novel.Text += text + " "
	}
	return novel
}

func TestEvaluate_HardContradictionMakesInconsistent(t *testing.T) {
	inv := newStageInvoker()
	inv.responses[model.StageClaimExtraction] = "1. Ahab was born in 1850."
	inv.responses[model.StageProsecutor] = "VERDICT: CONTRADICTORY\nCONFIDENCE: 0.9\nREASONING: The novel states Ahab was born in 1820, not 1850.\nCITATIONS: whale_p0"
	inv.responses[model.StageDefense] = "VERDICT: INSUFFICIENT\nCONFIDENCE: 0.3\nREASONING: The date could be a transcription slip.\nCITATIONS: NONE"

	res, err := testPipeline(inv).Evaluate(context.Background(), whalingNovel(), "Ahab was born in 1850.")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if res.Decision.Overall != model.OverallInconsistent {
		t.Errorf("overall = %q, want inconsistent", res.Decision.Overall)
	}
	if !strings.HasSuffix(res.Decision.Rule, ":c1") {
		t.Errorf("rule = %q, want contradiction naming c1", res.Decision.Rule)
	}
	if len(res.Decision.Verdicts) != 1 {
		t.Fatalf("got %d verdicts, want 1", len(res.Decision.Verdicts))
	}
	if v := res.Decision.Verdicts[0]; v.Label != model.LabelInconsistent || v.Confidence != 0.9 {
		t.Errorf("verdict = %+v, want inconsistent at 0.9", v)
	}
	// A confident contradiction must resolve without an adjudication call.
	if n := inv.callCount(model.StageJudge); n != 0 {
		t.Errorf("judge model called %d times, want 0", n)
	}
}

func TestEvaluate_NoClaimsIsVacuouslyConsistent(t *testing.T) {
	inv := newStageInvoker()
	inv.responses[model.StageClaimExtraction] = "NONE"

	res, err := testPipeline(inv).Evaluate(context.Background(), whalingNovel(), "A lovely tale.")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if res.Decision.Overall != model.OverallConsistent {
		t.Errorf("overall = %q, want consistent", res.Decision.Overall)
	}
	if res.Decision.Rule != score.RuleNoClaims {
		t.Errorf("rule = %q, want %q", res.Decision.Rule, score.RuleNoClaims)
	}
	if len(res.Decision.Verdicts) != 0 {
		t.Errorf("got %d verdicts, want 0", len(res.Decision.Verdicts))
	}
	for _, stage := range []model.Stage{model.StageProsecutor, model.StageDefense, model.StageJudge} {
		if n := inv.callCount(stage); n != 0 {
			t.Errorf("stage %s called %d times after empty extraction", stage, n)
		}
	}
}

func TestEvaluate_ConsensusConsistent(t *testing.T) {
	inv := newStageInvoker()
	inv.responses[model.StageClaimExtraction] = "1. Elizabeth visited the manor.\n2. Ahab commanded the Pequod."
	inv.responses[model.StageProsecutor] = "VERDICT: CONSISTENT\nCONFIDENCE: 0.7\nREASONING: No contradiction found.\nCITATIONS: NONE"
	inv.responses[model.StageDefense] = "VERDICT: CONSISTENT\nCONFIDENCE: 0.8\nREASONING: Directly supported.\nCITATIONS: NONE"

	res, err := testPipeline(inv).Evaluate(context.Background(), whalingNovel(), "Elizabeth visited the manor. Ahab commanded the Pequod.")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if res.Decision.Overall != model.OverallConsistent {
		t.Errorf("overall = %q, want consistent", res.Decision.Overall)
	}
	if len(res.Decision.Verdicts) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(res.Decision.Verdicts))
	}
	// Verdicts come back in claim order regardless of task completion order.
	if res.Decision.Verdicts[0].ClaimID != "c1" || res.Decision.Verdicts[1].ClaimID != "c2" {
		t.Errorf("verdict order = %s, %s; want c1, c2",
			res.Decision.Verdicts[0].ClaimID, res.Decision.Verdicts[1].ClaimID)
	}
	for _, v := range res.Decision.Verdicts {
		if v.Label != model.LabelConsistent {
			t.Errorf("verdict for %s = %q, want consistent", v.ClaimID, v.Label)
		}
	}
	// Advocate consensus resolves without adjudication.
	if n := inv.callCount(model.StageJudge); n != 0 {
		t.Errorf("judge model called %d times, want 0", n)
	}
}

func TestEvaluate_AdvocateFailureDowngradesClaim(t *testing.T) {
	inv := newStageInvoker()
	inv.responses[model.StageClaimExtraction] = "1. Elizabeth visited the manor."
	inv.errs[model.StageProsecutor] = errors.New("attempts exhausted after 5 tries: rate limited")
	inv.responses[model.StageDefense] = "VERDICT: CONSISTENT\nCONFIDENCE: 0.8\nREASONING: Supported.\nCITATIONS: NONE"

	res, err := testPipeline(inv).Evaluate(context.Background(), whalingNovel(), "Elizabeth visited the manor.")
	if err != nil {
		t.Fatalf("per-claim failure must not abort the run: %v", err)
	}

	if len(res.Decision.Verdicts) != 1 {
		t.Fatalf("got %d verdicts, want 1", len(res.Decision.Verdicts))
	}
	v := res.Decision.Verdicts[0]
	if v.Label != model.LabelUndetermined {
		t.Errorf("verdict = %q, want undetermined", v.Label)
	}
	if !strings.Contains(v.Rationale, "failed") {
		t.Errorf("rationale %q does not note the failure", v.Rationale)
	}
	if res.Decision.Overall != model.OverallConsistent {
		t.Errorf("overall = %q, undetermined must not force inconsistent", res.Decision.Overall)
	}
	if res.Decision.Undetermined != 1 {
		t.Errorf("undetermined count = %d, want 1", res.Decision.Undetermined)
	}
}

func TestEvaluate_ExtractionFailureAborts(t *testing.T) {
	inv := newStageInvoker()
	inv.errs[model.StageClaimExtraction] = errors.New("boom")

	_, err := testPipeline(inv).Evaluate(context.Background(), whalingNovel(), "Ahab sailed.")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, extract.ErrExtractionFailed) {
		t.Errorf("error = %v, want ErrExtractionFailed", err)
	}
	if n := inv.callCount(model.StageProsecutor); n != 0 {
		t.Errorf("prosecutor called %d times after fatal extraction", n)
	}
}

func TestEvaluate_NoEvidenceClaimUndetermined(t *testing.T) {
	inv := newStageInvoker()
	inv.responses[model.StageClaimExtraction] = "1. Quantum chromodynamics governs gluon interactions."

	res, err := testPipeline(inv).Evaluate(context.Background(), whalingNovel(), "Quantum chromodynamics governs gluon interactions.")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if len(res.Decision.Verdicts) != 1 {
		t.Fatalf("got %d verdicts, want 1", len(res.Decision.Verdicts))
	}
	if res.Decision.Verdicts[0].Label != model.LabelUndetermined {
		t.Errorf("verdict = %q, want undetermined", res.Decision.Verdicts[0].Label)
	}
	// Advocates skip the model entirely when retrieval finds nothing.
	for _, stage := range []model.Stage{model.StageProsecutor, model.StageDefense, model.StageJudge} {
		if n := inv.callCount(stage); n != 0 {
			t.Errorf("stage %s called %d times with no evidence", stage, n)
		}
	}
}
