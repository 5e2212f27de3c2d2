package centrality

import "github.com/papapumpkin/linkrank/internal/graph"

// degreeDenominator returns the divisor for raw degree counts, or 0 when it
// would be non-positive.
func degreeDenominator(n int, d Denominator) int {
	denom := n
	if d == DenominatorNMinus1 {
		denom = n - 1
	}
	if denom <= 0 {
		return 0
	}
	return denom
}

// Degree returns the degree centrality of id along dir: the adjacency size
// divided by N (or N-1). Repeated edges count once per row unless the graph
// was built WithDedupe, so the result lies in [0,1] only for graphs without
// repeated (source, target) pairs.
func Degree(g *graph.Graph, id graph.NodeID, dir graph.Direction, d Denominator) float64 {
	denom := degreeDenominator(g.Len(), d)
	if denom == 0 {
		return 0
	}
	deg := g.OutDegree(id)
	if dir == graph.Reverse {
		deg = g.InDegree(id)
	}
	return float64(deg) / float64(denom)
}
