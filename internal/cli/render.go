package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/canoncourt/canoncourt/internal/model"
	"github.com/canoncourt/canoncourt/internal/pipeline"
)

// renderSummary prints the human-readable decision for one run
func renderSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Book:    %s\n", res.Book)
	fmt.Fprintf(w, "Claims:  %d\n", len(res.Claims))
	fmt.Fprintln(w)

	claimText := make(map[string]string, len(res.Claims))
	for _, c := range res.Claims {
		claimText[c.ID] = c.Text
	}

	for _, v := range res.Decision.Verdicts {
		fmt.Fprintf(w, "  %s %-12s (%.2f) %s\n", verdictMark(v.Label), v.Label, v.Confidence, claimText[v.ClaimID])
		if v.Rationale != "" {
			fmt.Fprintf(w, "      %s\n", firstLine(v.Rationale))
		}
	}
	if len(res.Decision.Verdicts) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Overall: %s", strings.ToUpper(string(res.Decision.Overall)))
	if res.Decision.Undetermined > 0 {
		fmt.Fprintf(w, " (%d undetermined)", res.Decision.Undetermined)
	}
	fmt.Fprintln(w)

	if verbose {
		fmt.Fprintf(w, "Rule:    %s\n", res.Decision.Rule)
		fmt.Fprintf(w, "Calls:   %d model calls in %v\n", res.Calls, res.Elapsed.Round(time.Millisecond))
	}
}

func verdictMark(label model.Label) string {
	switch label {
	case model.LabelConsistent:
		return "✓"
	case model.LabelInconsistent:
		return "✗"
	default:
		return "?"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// writeJSON writes the full result to a file
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}
