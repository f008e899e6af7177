// Package corpus loads novels and splits them into stable, addressable
// passages. A novel is immutable once loaded: passages keep their IDs and
// order for the whole run.
package corpus

import "github.com/canoncourt/canoncourt/internal/model"

// Novel is the full-text reference corpus for one book
type Novel struct {
	Book     string
	Text     string
	Passages []model.Passage
}

// Empty reports whether the novel has no usable passages
func (n *Novel) Empty() bool {
	return n == nil || len(n.Passages) == 0
}
