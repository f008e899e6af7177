package model

// Role identifies which side of the debate produced an argument
type Role string

const (
	RoleProsecutor Role = "prosecutor"
	RoleDefense    Role = "defense"
)

// Label classifies a per-claim verdict
type Label string

const (
	LabelConsistent   Label = "consistent"
	LabelInconsistent Label = "inconsistent"
	LabelUndetermined Label = "undetermined"
)

// Argument is one side's position on a single claim. Arguments are produced
// independently: neither advocate sees the other's text.
type Argument struct {
	ClaimID       string   `json:"claim_id"`
	Role          Role     `json:"role"`
	Leaning       Label    `json:"leaning"`    // The advocate's own reading of the evidence
	Confidence    float64  `json:"confidence"` // 0.0-1.0
	Reasoning     string   `json:"reasoning"`
	CitedPassages []string `json:"cited_passages,omitempty"` // Passage IDs, empty only when evidence was empty
}

// Verdict is the judge's terminal judgment on a single claim. Exactly one
// verdict exists per claim and it is never revised.
type Verdict struct {
	ClaimID    string  `json:"claim_id"`
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"` // 0.0-1.0
	Rationale  string  `json:"rationale"`
}

// OverallLabel classifies the aggregated decision for a whole backstory
type OverallLabel string

const (
	OverallConsistent   OverallLabel = "consistent"
	OverallInconsistent OverallLabel = "inconsistent"
)

// Decision is the aggregated consistency judgment for an entire backstory.
// Undetermined claims never force an inconsistent decision on their own;
// they are carried in Verdicts for transparency.
type Decision struct {
	Overall      OverallLabel `json:"overall"`
	Verdicts     []Verdict    `json:"verdicts"`
	Rule         string       `json:"rule"` // Which aggregation rule fired
	Undetermined int          `json:"undetermined"`
}
