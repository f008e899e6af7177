package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/canoncourt/canoncourt/internal/pipeline"
)

var (
	provider     string
	modelName    string
	baseURL      string
	bookName     string
	outJSON      string
	judgeTimeout time.Duration
	rpm          float64
	maxClaims    int
	noCache      bool
)

// judgeCmd represents the judge command
var judgeCmd = &cobra.Command{
	Use:   "judge <novel> <backstory>",
	Short: "Judge one backstory against a novel",
	Long: `Judge runs the full deliberation over a single backstory:
- Decompose the backstory into atomic claims
- Retrieve relevant passages from the novel for each claim
- Argue each claim from both sides (prosecutor and defense)
- Render a per-claim verdict and an overall consistency decision

The novel is a local text/HTML file or a URL (e.g. a Project Gutenberg
page). The backstory is a file path, or "-" to read from stdin.

Example:
  canoncourt judge moby-dick.txt backstory.txt
  canoncourt judge https://www.gutenberg.org/files/2701/2701-h/2701-h.htm backstory.txt --json decision.json
  echo "Ahab was born in 1850." | canoncourt judge moby-dick.txt -`,
	Args: cobra.ExactArgs(2),
	RunE: runJudge,
}

func init() {
	rootCmd.AddCommand(judgeCmd)

	// Model flags
	judgeCmd.Flags().StringVar(&provider, "provider", "", "LLM provider (openai, groq, anthropic, ollama)")
	judgeCmd.Flags().StringVar(&modelName, "model", "", "default model for all stages")
	judgeCmd.Flags().StringVar(&baseURL, "base-url", "", "custom API endpoint")
	judgeCmd.Flags().Float64Var(&rpm, "rpm", 0, "shared request budget, requests per minute (0 = config default)")
	judgeCmd.Flags().IntVar(&maxClaims, "max-claims", 0, "cap on claims per backstory (0 = config default)")

	// Run flags
	judgeCmd.Flags().StringVar(&bookName, "book", "", "book name for passage IDs (default: derived from the source)")
	judgeCmd.Flags().StringVar(&outJSON, "json", "", "write the full decision as JSON to this path")
	judgeCmd.Flags().DurationVar(&judgeTimeout, "timeout", 15*time.Minute, "overall run timeout")
	judgeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the passage index cache")
}

func runJudge(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), judgeTimeout)
	defer cancel()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if provider != "" {
		cfg.LLM.Provider = provider
		applyProviderEnv(&cfg)
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
		cfg.LLM.Models = nil // a flag-set model overrides stage routing
	}
	if baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if rpm > 0 {
		cfg.Gateway.RequestsPerMinute = rpm
	}
	if maxClaims > 0 {
		cfg.Scoring.MaxClaims = maxClaims
	}
	cfg.Cache.Enabled = !noCache

	backstory, err := readBackstory(args[1])
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Loading novel: %s\n", args[0])
	}
	novel, err := p.LoadNovel(ctx, args[0], bookName)
	if err != nil {
		return fmt.Errorf("load novel: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d passages from %q\n\n", len(novel.Passages), novel.Book)
	}

	res, err := p.Evaluate(ctx, novel, backstory)
	if err != nil {
		return fmt.Errorf("judge failed: %w", err)
	}

	if outJSON != "" {
		if err := writeJSON(outJSON, res); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	renderSummary(os.Stdout, res)
	return nil
}

// readBackstory loads the backstory from a file, or stdin for "-"
func readBackstory(arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read backstory: %w", err)
	}
	return string(data), nil
}
