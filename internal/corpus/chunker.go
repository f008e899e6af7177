package corpus

import (
	"strings"

	"github.com/canoncourt/canoncourt/internal/model"
)

// Chunk splits novel text into overlapping word-window passages. Overlap
// keeps sentences that straddle a boundary visible to both neighbors.
// A short tail below minTail words is dropped unless it is the only chunk.
func Chunk(text, book string, chunkWords, overlapWords, minTail int) []model.Passage {
	if chunkWords <= 0 {
		chunkWords = 300
	}
	if overlapWords < 0 || overlapWords >= chunkWords {
		overlapWords = 0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var passages []model.Passage
	step := chunkWords - overlapWords

	for start, idx := 0, 0; start < len(words); start += step {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}

		n := end - start
		if n < minTail && idx > 0 {
			break
		}

		passages = append(passages, model.Passage{
			ID:    model.PassageID(book, idx),
			Book:  book,
			Index: idx,
			Text:  strings.Join(words[start:end], " "),
			Words: n,
		})
		idx++

		if end == len(words) {
			break
		}
	}

	return passages
}
