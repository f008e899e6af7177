package retrieve

import (
	"strings"
	"unicode"
)

// stopwords excluded from similarity scoring; high-frequency function words
// would otherwise dominate every match in novel-length prose
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "had": {}, "has": {},
	"have": {}, "he": {}, "her": {}, "his": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "not": {}, "of": {}, "on": {}, "or": {}, "she": {}, "that": {},
	"the": {}, "their": {}, "they": {}, "this": {}, "to": {}, "was": {},
	"were": {}, "which": {}, "who": {}, "with": {}, "you": {},
}

// tokenize lowercases text, splits on non-letter/digit runs, and drops
// stopwords and single characters
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// termFreq builds a term frequency vector from tokens
func termFreq(tokens []string) map[string]float64 {
	if len(tokens) == 0 {
		return nil
	}
	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf
}
