package model

import "fmt"

// Passage is a contiguous span of novel text with a stable identifier.
// Passages are produced once during ingestion and never mutated.
type Passage struct {
	ID    string `json:"id"`    // "<book>_p<index>"
	Book  string `json:"book"`  // Book identifier (file stem or caller-supplied)
	Index int    `json:"index"` // Order of appearance in the novel (0-based)
	Text  string `json:"text"`
	Words int    `json:"words"` // Word count, fixed at chunking time
}

// PassageID builds the canonical identifier for a passage
func PassageID(book string, index int) string {
	return fmt.Sprintf("%s_p%d", book, index)
}
