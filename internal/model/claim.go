package model

// Claim represents an atomic factual assertion extracted from a backstory
type Claim struct {
	ID   string `json:"id"`             // Stable identifier, unique within one backstory
	Text string `json:"text"`           // The claim text itself
	Span Span   `json:"span,omitempty"` // Character range in the backstory (best effort)
}

// Span marks a character range in the backstory text.
// The zero value means the extractor could not locate the claim verbatim.
type Span struct {
	Start int `json:"start,omitempty"`
	End   int `json:"end,omitempty"`
}

// IsZero reports whether the span carries no location information
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}
