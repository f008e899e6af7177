package debate

import (
	"strconv"
	"strings"

	"github.com/canoncourt/canoncourt/internal/model"
)

// judgment is the structured form of an agent response
type judgment struct {
	label      model.Label
	confidence float64
	reasoning  string
	citations  []string
}

// parseJudgment parses the VERDICT/CONFIDENCE/REASONING/CITATIONS line
// format shared by all debate stages. The second return value is false when
// no valid VERDICT line was found.
func parseJudgment(resp string) (judgment, bool) {
	j := judgment{label: model.LabelUndetermined, reasoning: strings.TrimSpace(resp)}
	found := false

	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "VERDICT:"):
			if label, ok := parseLabel(valueAfterColon(line)); ok {
				j.label = label
				found = true
			}

		case strings.HasPrefix(upper, "CONFIDENCE:"):
			j.confidence = parseConfidence(valueAfterColon(line))

		case strings.HasPrefix(upper, "REASONING:"):
			if v := valueAfterColon(line); v != "" {
				j.reasoning = v
			}

		case strings.HasPrefix(upper, "CITATIONS:"):
			j.citations = parseCitationList(valueAfterColon(line))
		}
	}

	return j, found
}

func valueAfterColon(line string) string {
	_, after, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}

// parseLabel maps agent verdict words onto labels. The agents speak the
// courtroom dialect (CONTRADICTORY, INSUFFICIENT); accept both vocabularies.
func parseLabel(v string) (model.Label, bool) {
	switch strings.ToUpper(strings.TrimRight(v, ". ")) {
	case "CONSISTENT":
		return model.LabelConsistent, true
	case "CONTRADICTORY", "INCONSISTENT":
		return model.LabelInconsistent, true
	case "INSUFFICIENT", "UNDETERMINED":
		return model.LabelUndetermined, true
	default:
		return "", false
	}
}

// parseConfidence accepts "0.85", "85%", or "85", clamped to [0,1]
func parseConfidence(v string) float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	if f > 1.0 {
		f = f / 100.0
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// parseCitationList splits "book_p1, book_p2" into passage IDs
func parseCitationList(v string) []string {
	if strings.EqualFold(strings.TrimSpace(v), "none") {
		return nil
	}

	var ids []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
		part = strings.Trim(part, "[]()")
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

// validCitations filters cited IDs down to ones actually in the evidence
// set, preserving citation order. Invented citations are dropped.
func validCitations(cited []string, evidence []model.Passage) []string {
	if len(cited) == 0 || len(evidence) == 0 {
		return nil
	}

	known := make(map[string]bool, len(evidence))
	for _, p := range evidence {
		known[p.ID] = true
	}

	var valid []string
	seen := make(map[string]bool)
	for _, id := range cited {
		if known[id] && !seen[id] {
			seen[id] = true
			valid = append(valid, id)
		}
	}
	return valid
}
