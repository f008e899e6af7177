// Package score turns per-claim verdicts into a single decision for a
// backstory. It is a pure computation with no model calls, so the same
// verdict set always yields the same decision.
package score

import (
	"fmt"

	"github.com/canoncourt/canoncourt/internal/model"
)

// Aggregation rules, recorded on the decision so callers can see which
// one fired.
const (
	RuleNoClaims      = "no-claims"
	RuleContradiction = "confident-contradiction"
	RuleNoContradict  = "no-confident-contradiction"
)

// Aggregate folds claim verdicts into an overall decision. A backstory
// is inconsistent when at least one verdict is inconsistent with
// confidence strictly above threshold. Undetermined verdicts never flip
// the overall result; they are counted and reported instead. An empty
// verdict slice is vacuously consistent.
func Aggregate(verdicts []model.Verdict, threshold float64) model.Decision {
	d := model.Decision{
		Overall:  model.OverallConsistent,
		Verdicts: verdicts,
		Rule:     RuleNoContradict,
	}
	if len(verdicts) == 0 {
		d.Rule = RuleNoClaims
		return d
	}
	for _, v := range verdicts {
		switch v.Label {
		case model.LabelUndetermined:
			d.Undetermined++
		case model.LabelInconsistent:
			if v.Confidence > threshold && d.Overall != model.OverallInconsistent {
				d.Overall = model.OverallInconsistent
				d.Rule = fmt.Sprintf("%s:%s", RuleContradiction, v.ClaimID)
			}
		}
	}
	return d
}
