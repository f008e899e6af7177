// Package debate stages the adversarial deliberation over a single claim:
// two independent advocates argue opposite readings of the evidence, and a
// judge renders the terminal verdict.
package debate

import (
	"context"
	"fmt"

	"github.com/canoncourt/canoncourt/internal/model"
)

// Invoker issues one prompt to the model routed for a stage.
// *gateway.Gateway satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, stage model.Stage, prompt string) (string, error)
}

// Advocate argues one side of a claim. Prosecutor and defense share the
// mechanics and differ only in role, stage routing, and prompt.
type Advocate struct {
	gw     Invoker
	role   model.Role
	stage  model.Stage
	prompt func(model.Claim, []model.Passage) string
}

// NewProsecutor creates the advocate hunting for contradictions
func NewProsecutor(gw Invoker) *Advocate {
	return &Advocate{gw: gw, role: model.RoleProsecutor, stage: model.StageProsecutor, prompt: prosecutorPrompt}
}

// NewDefense creates the advocate hunting for consistency paths
func NewDefense(gw Invoker) *Advocate {
	return &Advocate{gw: gw, role: model.RoleDefense, stage: model.StageDefense, prompt: defensePrompt}
}

// Role returns which side this advocate argues
func (a *Advocate) Role() model.Role {
	return a.role
}

// Argue produces this side's argument for a claim. With empty evidence no
// model call is made: the argument states the absence outright instead of
// inventing citations. With evidence present the argument always carries at
// least one valid citation.
func (a *Advocate) Argue(ctx context.Context, claim model.Claim, evidence []model.Passage) (model.Argument, error) {
	if len(evidence) == 0 {
		return model.Argument{
			ClaimID:    claim.ID,
			Role:       a.role,
			Leaning:    model.LabelUndetermined,
			Confidence: 0,
			Reasoning:  "No evidence available in the novel for this claim.",
		}, nil
	}

	resp, err := a.gw.Invoke(ctx, a.stage, a.prompt(claim, evidence))
	if err != nil {
		return model.Argument{}, fmt.Errorf("%s argument for %s: %w", a.role, claim.ID, err)
	}

	// An unparseable response still yields an argument: undetermined leaning
	// with the raw text as reasoning, as a human reader could still weigh it.
	j, _ := parseJudgment(resp)

	cited := validCitations(j.citations, evidence)
	if len(cited) == 0 {
		// The model cited nothing usable; anchor the argument to the
		// top-ranked passage it was shown.
		cited = []string{evidence[0].ID}
	}

	return model.Argument{
		ClaimID:       claim.ID,
		Role:          a.role,
		Leaning:       j.label,
		Confidence:    j.confidence,
		Reasoning:     j.reasoning,
		CitedPassages: cited,
	}, nil
}
