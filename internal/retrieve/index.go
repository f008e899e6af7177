package retrieve

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/canoncourt/canoncourt/internal/cache"
	"github.com/canoncourt/canoncourt/internal/corpus"
	"github.com/canoncourt/canoncourt/internal/model"
)

// Index is a lexical term-frequency index over a novel's passages.
// Built once per book, immutable afterward.
type Index struct {
	Book     string
	Passages []model.Passage

	vectors []map[string]float64 // parallel to Passages
	norms   []float64
}

// BuildIndex indexes every passage of a novel
func BuildIndex(novel *corpus.Novel) *Index {
	idx := &Index{
		Book:     novel.Book,
		Passages: novel.Passages,
		vectors:  make([]map[string]float64, len(novel.Passages)),
		norms:    make([]float64, len(novel.Passages)),
	}

	for i, p := range novel.Passages {
		tf := termFreq(tokenize(p.Text))
		idx.vectors[i] = tf
		idx.norms[i] = vectorNorm(tf)
	}

	return idx
}

// similarity returns the cosine similarity between a claim vector and the
// passage at position i
func (idx *Index) similarity(claimTF map[string]float64, claimNorm float64, i int) float64 {
	if claimNorm == 0 || idx.norms[i] == 0 {
		return 0
	}

	var dot float64
	for term, w := range claimTF {
		dot += w * idx.vectors[i][term]
	}
	return dot / (claimNorm * idx.norms[i])
}

func vectorNorm(tf map[string]float64) float64 {
	var sum float64
	for _, w := range tf {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// indexBlob is the serialized form stored in the cache. Term vectors are
// kept so a cache hit skips tokenizing the whole novel again.
type indexBlob struct {
	Book     string               `json:"book"`
	Passages []model.Passage      `json:"passages"`
	Vectors  []map[string]float64 `json:"vectors"`
}

// Encode serializes the index for caching
func (idx *Index) Encode() ([]byte, error) {
	return json.Marshal(indexBlob{
		Book:     idx.Book,
		Passages: idx.Passages,
		Vectors:  idx.vectors,
	})
}

// DecodeIndex deserializes a cached index
func DecodeIndex(data []byte) (*Index, error) {
	var blob indexBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if len(blob.Vectors) != len(blob.Passages) {
		return nil, fmt.Errorf("decode index: %d vectors for %d passages", len(blob.Vectors), len(blob.Passages))
	}

	idx := &Index{
		Book:     blob.Book,
		Passages: blob.Passages,
		vectors:  blob.Vectors,
		norms:    make([]float64, len(blob.Vectors)),
	}
	for i, tf := range blob.Vectors {
		idx.norms[i] = vectorNorm(tf)
	}
	return idx, nil
}

// LoadOrBuildIndex returns a cached index for the novel or builds and caches
// a fresh one. The key hashes the novel text, so edits never hit stale data.
func LoadOrBuildIndex(c cache.Cache, novel *corpus.Novel, ttl time.Duration) *Index {
	if c == nil {
		return BuildIndex(novel)
	}

	key := cache.IndexKey(novel.Book, novel.Text)
	if data, found := c.Get(key); found {
		if idx, err := DecodeIndex(data); err == nil {
			return idx
		}
		_ = c.Delete(key)
	}

	idx := BuildIndex(novel)
	if data, err := idx.Encode(); err == nil {
		_ = c.Set(key, data, ttl)
	}
	return idx
}
