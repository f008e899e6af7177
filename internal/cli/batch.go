package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/canoncourt/canoncourt/internal/model"
	"github.com/canoncourt/canoncourt/internal/pipeline"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <novel> <cases.yaml>",
	Short: "Judge multiple backstories against one novel in parallel",
	Long: `Batch judges a file of backstory cases concurrently:
- Read cases from a YAML file (a list of character/backstory pairs)
- The novel is loaded and indexed once, shared by all cases
- All cases share one model rate budget
- Write one decision JSON per case

Example:
  canoncourt batch moby-dick.txt cases.yaml
  canoncourt batch moby-dick.txt cases.yaml --concurrency 4 --output-dir ./decisions`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of cases judged in parallel")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./canoncourt-decisions", "output directory for decision JSON files")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for the batch")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the passage index cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = !noCache
	if concurrency > 0 {
		cfg.Concurrency.BatchWorkers = concurrency
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Loading novel: %s\n", args[0])
	novel, err := p.LoadNovel(ctx, args[0], "")
	if err != nil {
		return fmt.Errorf("load novel: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ %d passages from %q\n", len(novel.Passages), novel.Book)

	runner := pipeline.NewBatchRunner(p, cfg.Concurrency.BatchWorkers)
	results, err := runner.RunFile(ctx, novel, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "⚙ Judging %d cases with %d workers...\n\n", len(results), cfg.Concurrency.BatchWorkers)

	success := 0
	failures := 0
	for i, r := range results {
		name := r.Case.Character
		if name == "" {
			name = fmt.Sprintf("case-%d", i+1)
		}

		if r.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", name, r.Err)
			continue
		}
		success++

		path := filepath.Join(outputDir, caseSlug(name)+".json")
		if err := writeJSON(path, r.Result); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s %s: %s (%d claims)\n",
			decisionMark(r), name, r.Result.Decision.Overall, len(r.Result.Claims))
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d judged, %d failed, decisions in %s\n", success, failures, outputDir)
	return nil
}

func decisionMark(r *pipeline.CaseResult) string {
	if r.Result.Decision.Overall == model.OverallConsistent {
		return "✓"
	}
	return "✗"
}

// caseSlug makes a character name safe to use as a file name
func caseSlug(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
	slug = strings.Trim(slug, "-")
	if len(slug) > 64 {
		slug = slug[:64]
	}
	if slug == "" {
		slug = "case"
	}
	return slug
}
