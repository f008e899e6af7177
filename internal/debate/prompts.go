package debate

import (
	"fmt"
	"strings"

	"github.com/canoncourt/canoncourt/internal/model"
)

// maxEvidenceChars truncates long passages in prompts to stay inside model
// token limits alongside the instruction overhead
const maxEvidenceChars = 800

const outputFormat = `OUTPUT FORMAT (MUST FOLLOW EXACTLY):
VERDICT: CONSISTENT|CONTRADICTORY|INSUFFICIENT
CONFIDENCE: [0.0-1.0]
REASONING: [Explain your verdict in 2-3 sentences]
CITATIONS: [Comma-separated passage IDs you relied on, or NONE]

Think step-by-step, but output ONLY the format above.`

// formatEvidence renders passages for a prompt, labeled by their stable IDs
// so agents can cite them back
func formatEvidence(evidence []model.Passage) string {
	if len(evidence) == 0 {
		return "No relevant evidence found."
	}

	var b strings.Builder
	for i, p := range evidence {
		text := p.Text
		if len(text) > maxEvidenceChars {
			text = text[:maxEvidenceChars] + "..."
		}
		fmt.Fprintf(&b, "[Passage %s]\n%s\n", p.ID, text)
		if i < len(evidence)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func prosecutorPrompt(claim model.Claim, evidence []model.Passage) string {
	return fmt.Sprintf(`You are a PROSECUTOR analyzing whether a backstory claim CONTRADICTS a novel.

BACKSTORY CLAIM:
%s

NOVEL EVIDENCE:
%s

YOUR TASK:
1. Identify ANY direct contradictions between the claim and evidence
2. Look for:
   - Temporal impossibilities (events that couldn't happen in claimed order)
   - Logical contradictions (claim states X, novel shows NOT X)
   - Causal violations (claim's preconditions prevent novel's events)

STRICT RULES:
- A contradiction must be EXPLICIT and DIRECT
- Absence of confirmation is NOT contradiction
- Unexplained events are NOT contradictions
- Only flag HARD contradictions, not soft implausibilities
- Cite only passage IDs that appear in the evidence above

%s`, claim.Text, formatEvidence(evidence), outputFormat)
}

func defensePrompt(claim model.Claim, evidence []model.Passage) string {
	return fmt.Sprintf(`You are a DEFENSE attorney analyzing whether a backstory claim is CONSISTENT with a novel.

BACKSTORY CLAIM:
%s

NOVEL EVIDENCE:
%s

YOUR TASK:
1. Find ANY plausible interpretation where the claim fits the evidence
2. Look for:
   - Compatible causal pathways (claim's events make the evidence make sense)
   - Consistent character development (claim explains later behavior)
   - No explicit contradictions

PERMISSIVE RULES:
- If claim doesn't contradict evidence, it's CONSISTENT
- Unstated details can be assumed if plausible
- Coincidences are acceptable unless impossible
- Benefit of doubt favors CONSISTENT
- Cite only passage IDs that appear in the evidence above

%s`, claim.Text, formatEvidence(evidence), outputFormat)
}

func judgePrompt(claim model.Claim, evidence []model.Passage, pros, def model.Argument) string {
	return fmt.Sprintf(`You are a JUDGE evaluating conflicting arguments about a backstory claim.

CLAIM:
%s

NOVEL EVIDENCE:
%s

PROSECUTOR (finds contradictions):
Verdict: %s
Confidence: %.2f
Reasoning: %s

DEFENSE (finds consistency):
Verdict: %s
Confidence: %.2f
Reasoning: %s

YOUR TASK:
Determine which side has the stronger argument based on:
1. Strength of evidence cited
2. Logical soundness of reasoning
3. Conservative principle: contradictions override weak consistency

%s`, claim.Text, formatEvidence(evidence),
		agentLabel(pros.Leaning), pros.Confidence, pros.Reasoning,
		agentLabel(def.Leaning), def.Confidence, def.Reasoning,
		outputFormat)
}

func strictJudgePrompt(claim model.Claim, pros, def model.Argument) string {
	return fmt.Sprintf(`Decide between two arguments about whether a backstory claim fits a novel.

CLAIM: %s
PROSECUTOR SAYS (%s, %.2f): %s
DEFENSE SAYS (%s, %.2f): %s

Respond with EXACTLY three lines and nothing else:
VERDICT: CONSISTENT or CONTRADICTORY or INSUFFICIENT
CONFIDENCE: a number between 0.0 and 1.0
REASONING: one sentence`, claim.Text,
		agentLabel(pros.Leaning), pros.Confidence, pros.Reasoning,
		agentLabel(def.Leaning), def.Confidence, def.Reasoning)
}

// agentLabel renders a label in the vocabulary the agents were prompted with
func agentLabel(l model.Label) string {
	switch l {
	case model.LabelConsistent:
		return "CONSISTENT"
	case model.LabelInconsistent:
		return "CONTRADICTORY"
	default:
		return "INSUFFICIENT"
	}
}
