package debate

import (
	"context"
	"fmt"

	"github.com/canoncourt/canoncourt/internal/model"
)

// Judge renders the terminal per-claim verdict from both arguments and the
// evidence. Deliberate never fails the run: unrecoverable situations
// produce an undetermined verdict instead.
type Judge struct {
	gw            Invoker
	hardThreshold float64
}

// NewJudge creates a judge. hardThreshold is the prosecutor confidence above
// which a contradiction is accepted without a model call.
func NewJudge(gw Invoker, hardThreshold float64) *Judge {
	if hardThreshold <= 0 {
		hardThreshold = 0.7
	}
	return &Judge{gw: gw, hardThreshold: hardThreshold}
}

// Deliberate weighs both arguments and returns the claim's one and only
// verdict
func (j *Judge) Deliberate(ctx context.Context, claim model.Claim, evidence []model.Passage, pros, def model.Argument) model.Verdict {
	// Both sides came up empty-handed
	if pros.Leaning == model.LabelUndetermined && def.Leaning == model.LabelUndetermined {
		return model.Verdict{
			ClaimID:    claim.ID,
			Label:      model.LabelUndetermined,
			Confidence: 0,
			Rationale:  "Both sides lack sufficient evidence.",
		}
	}

	// A confident prosecutor contradiction stands on its own
	if pros.Leaning == model.LabelInconsistent && pros.Confidence > j.hardThreshold {
		return model.Verdict{
			ClaimID:    claim.ID,
			Label:      model.LabelInconsistent,
			Confidence: pros.Confidence,
			Rationale:  fmt.Sprintf("Hard contradiction found: %s", pros.Reasoning),
		}
	}

	// Consensus needs no adjudication
	if pros.Leaning == model.LabelConsistent && def.Leaning == model.LabelConsistent {
		return model.Verdict{
			ClaimID:    claim.ID,
			Label:      model.LabelConsistent,
			Confidence: (pros.Confidence + def.Confidence) / 2,
			Rationale:  "Both sides agree: consistent.",
		}
	}

	// Disagreement: adjudicate with the model
	resp, err := j.gw.Invoke(ctx, model.StageJudge, judgePrompt(claim, evidence, pros, def))
	if err != nil {
		return j.failedVerdict(claim, err)
	}

	if parsed, ok := parseJudgment(resp); ok {
		return j.verdictFrom(claim, parsed)
	}

	// One retry with a format-constrained reformulation
	resp, err = j.gw.Invoke(ctx, model.StageJudge, strictJudgePrompt(claim, pros, def))
	if err != nil {
		return j.failedVerdict(claim, err)
	}
	if parsed, ok := parseJudgment(resp); ok {
		return j.verdictFrom(claim, parsed)
	}

	return model.Verdict{
		ClaimID:    claim.ID,
		Label:      model.LabelUndetermined,
		Confidence: 0,
		Rationale:  "Judge response could not be parsed after strict retry.",
	}
}

func (j *Judge) verdictFrom(claim model.Claim, parsed judgment) model.Verdict {
	return model.Verdict{
		ClaimID:    claim.ID,
		Label:      parsed.label,
		Confidence: parsed.confidence,
		Rationale:  parsed.reasoning,
	}
}

func (j *Judge) failedVerdict(claim model.Claim, err error) model.Verdict {
	return model.Verdict{
		ClaimID:    claim.ID,
		Label:      model.LabelUndetermined,
		Confidence: 0,
		Rationale:  fmt.Sprintf("Judge stage failed: %v", err),
	}
}
