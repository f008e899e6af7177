package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/canoncourt/canoncourt/internal/model"
)

// invokerFunc adapts a function to the Invoker shape shared by all stages
type invokerFunc func(stage model.Stage, prompt string) (string, error)

func (f invokerFunc) Invoke(_ context.Context, stage model.Stage, prompt string) (string, error) {
	return f(stage, prompt)
}

func TestReadCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	content := `- character: Elizabeth
  backstory: Elizabeth visited the manor.
- character: Blank
  backstory: ""
- character: Ahab
  backstory: Ahab commanded the Pequod.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cases, err := ReadCases(path)
	if err != nil {
		t.Fatalf("read cases: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("got %d cases, want 2 (empty backstory skipped)", len(cases))
	}
	if cases[0].Character != "Elizabeth" || cases[1].Character != "Ahab" {
		t.Errorf("cases = %q, %q; want Elizabeth, Ahab", cases[0].Character, cases[1].Character)
	}
}

func TestReadCases_MissingFile(t *testing.T) {
	if _, err := ReadCases(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBatchRunner_OneAbortDoesNotSinkTheRest(t *testing.T) {
	consistent := "VERDICT: CONSISTENT\nCONFIDENCE: 0.8\nREASONING: Supported.\nCITATIONS: NONE"
	inv := invokerFunc(func(stage model.Stage, prompt string) (string, error) {
		switch stage {
		case model.StageClaimExtraction:
			// The Ahab backstory hits a failing model; Elizabeth's works.
			if strings.Contains(prompt, "Ahab") {
				return "", errors.New("boom")
			}
			return "1. Elizabeth visited the manor.", nil
		default:
			return consistent, nil
		}
	})

	cfg := model.DefaultConfig()
	cfg.Retrieval.MinSimilarity = 0.01
	p := testPipelineWith(inv, cfg)

	cases := []Case{
		{Character: "Elizabeth", Backstory: "Elizabeth visited the manor."},
		{Character: "Ahab", Backstory: "Ahab was born in 1850."},
	}

	results := NewBatchRunner(p, 2).Run(context.Background(), whalingNovel(), cases)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	// Results come back in case order.
	if results[0].Case.Character != "Elizabeth" || results[1].Case.Character != "Ahab" {
		t.Fatalf("result order = %s, %s", results[0].Case.Character, results[1].Case.Character)
	}

	if results[0].Err != nil {
		t.Errorf("Elizabeth case failed: %v", results[0].Err)
	}
	if results[0].Result == nil || results[0].Result.Decision.Overall != model.OverallConsistent {
		t.Errorf("Elizabeth case did not resolve consistent")
	}

	if results[1].Err == nil {
		t.Error("Ahab case should carry the extraction failure")
	}
}

func TestBatchRunner_EmptyCases(t *testing.T) {
	p := testPipeline(newStageInvoker())
	if results := NewBatchRunner(p, 2).Run(context.Background(), whalingNovel(), nil); len(results) != 0 {
		t.Errorf("got %d results for empty batch, want 0", len(results))
	}
}
