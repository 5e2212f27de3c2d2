// Package rank turns centrality score columns into ranked top-K lists and
// renders the final report.
package rank

import (
	"cmp"
	"slices"

	"github.com/papapumpkin/linkrank/internal/graph"
)

// Entry is one ranked node.
type Entry struct {
	ID    graph.NodeID
	Score float64
}

// TopK returns up to k entries of scores sorted by score descending. Equal
// scores are ordered by ascending NodeID, which is the order in which node
// names first appeared in the input. k <= 0 or an empty column yields an
// empty, non-nil slice.
func TopK(scores []float64, k int) []Entry {
	if k <= 0 || len(scores) == 0 {
		return []Entry{}
	}

	all := make([]Entry, len(scores))
	for i, s := range scores {
		all[i] = Entry{ID: graph.NodeID(i), Score: s}
	}
	slices.SortFunc(all, compareEntries)

	if k > len(all) {
		k = len(all)
	}
	return slices.Clip(all[:k])
}

func compareEntries(a, b Entry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
