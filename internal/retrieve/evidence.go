package retrieve

import (
	"sort"

	"github.com/canoncourt/canoncourt/internal/model"
)

// Locator finds the novel passages most relevant to a claim
type Locator struct {
	index         *Index
	maxPassages   int
	minSimilarity float64
}

// NewLocator creates a locator over a built index
func NewLocator(index *Index, cfg model.RetrievalConfig) *Locator {
	maxPassages := cfg.MaxPassages
	if maxPassages <= 0 {
		maxPassages = 3
	}

	return &Locator{
		index:         index,
		maxPassages:   maxPassages,
		minSimilarity: cfg.MinSimilarity,
	}
}

type scored struct {
	passage    model.Passage
	similarity float64
}

// Locate returns the top passages for a claim, ranked by similarity with
// ties broken by order of appearance in the novel. An empty result is valid
// and must be forwarded as such; it is never padded.
func (l *Locator) Locate(claim model.Claim) []model.Passage {
	if l.index == nil || len(l.index.Passages) == 0 {
		return nil
	}

	claimTF := termFreq(tokenize(claim.Text))
	claimNorm := vectorNorm(claimTF)
	if claimNorm == 0 {
		return nil
	}

	var candidates []scored
	for i, p := range l.index.Passages {
		sim := l.index.similarity(claimTF, claimNorm, i)
		if sim >= l.minSimilarity && sim > 0 {
			candidates = append(candidates, scored{passage: p, similarity: sim})
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].similarity != candidates[b].similarity {
			return candidates[a].similarity > candidates[b].similarity
		}
		// Deterministic: earlier passages first
		return candidates[a].passage.Index < candidates[b].passage.Index
	})

	if len(candidates) > l.maxPassages {
		candidates = candidates[:l.maxPassages]
	}

	passages := make([]model.Passage, len(candidates))
	for i, c := range candidates {
		passages[i] = c.passage
	}
	return passages
}
