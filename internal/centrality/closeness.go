// Package centrality computes degree and Wasserman-Faust closeness
// centrality for every node of a graph.Graph, fanning the per-node work out
// over a fixed pool of workers that each own a disjoint range of result cells.
package centrality

import "github.com/papapumpkin/linkrank/internal/graph"

// Closeness converts one node's distance map into its Wasserman-Faust
// closeness in a graph of total nodes:
//
//	n = |dm| + 1
//	C = ((n-1)/(total-1)) * ((n-1)/sum(dm))
//
// The first factor is the share of the rest of the graph the node reaches;
// the second is classic closeness within the reachable set. A node that
// reaches nothing scores 0.
func Closeness(dm graph.DistanceMap, total int) float64 {
	var r graph.Reach
	for _, d := range dm {
		r.Reached++
		r.DistanceSum += int64(d)
	}
	return ClosenessFromReach(r, total)
}

// ClosenessFromReach applies the Closeness formula to a Walker result.
func ClosenessFromReach(r graph.Reach, total int) float64 {
	if r.Reached == 0 || r.DistanceSum <= 0 || total < 2 {
		return 0
	}
	reached := float64(r.Reached) // n - 1
	return (reached / float64(total-1)) * (reached / float64(r.DistanceSum))
}
