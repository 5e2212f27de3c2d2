package graph

import "fmt"

// DistanceMap maps every node reachable from a start node to its hop
// distance. The start node itself is never present.
type DistanceMap map[NodeID]int

// Reach summarizes one traversal: how many nodes other than the start were
// reached and the sum of their distances.
type Reach struct {
	Reached     int
	DistanceSum int64
}

// Walker runs repeated breadth-first traversals over one graph, reusing its
// distance array and frontier between walks. A Walker is not safe for
// concurrent use; give each goroutine its own.
type Walker struct {
	g     *Graph
	dist  []int32 // -1 = unvisited
	queue []NodeID
}

// NewWalker allocates scratch space sized to g.
func NewWalker(g *Graph) *Walker {
	dist := make([]int32, g.Len())
	for i := range dist {
		dist[i] = -1
	}
	return &Walker{
		g:     g,
		dist:  dist,
		queue: make([]NodeID, 0, 64),
	}
}

// Walk performs a breadth-first search from start along dir. Every edge has
// unit length, so the distance assigned on first discovery is the shortest.
// start must be a valid node of the graph.
func (w *Walker) Walk(start NodeID, dir Direction) Reach {
	w.reset()
	adj := w.g.adjacency(dir)

	w.dist[start] = 0
	w.queue = append(w.queue, start)

	var r Reach
	for head := 0; head < len(w.queue); head++ {
		u := w.queue[head]
		next := w.dist[u] + 1
		for _, v := range adj.neighbors(u) {
			if w.dist[v] >= 0 {
				continue
			}
			w.dist[v] = next
			w.queue = append(w.queue, v)
			r.Reached++
			r.DistanceSum += int64(next)
		}
	}
	return r
}

// Distances returns the DistanceMap of the most recent Walk.
func (w *Walker) Distances() DistanceMap {
	if len(w.queue) == 0 {
		return DistanceMap{}
	}
	dm := make(DistanceMap, len(w.queue)-1)
	for _, v := range w.queue[1:] {
		dm[v] = int(w.dist[v])
	}
	return dm
}

// Order returns the nodes reached by the most recent Walk in visit order,
// start first. The slice is overwritten by the next Walk.
func (w *Walker) Order() []NodeID {
	return w.queue
}

// reset clears only the cells touched by the previous walk.
func (w *Walker) reset() {
	for _, v := range w.queue {
		w.dist[v] = -1
	}
	w.queue = w.queue[:0]
}

// ShortestDistances returns the hop distance from start to every node
// reachable along dir. Unreachable nodes are absent.
func ShortestDistances(g *Graph, start NodeID, dir Direction) (DistanceMap, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.Contains(start) {
		return nil, fmt.Errorf("%w: %d (graph has %d nodes)", ErrNodeOutOfRange, start, g.Len())
	}
	w := NewWalker(g)
	w.Walk(start, dir)
	return w.Distances(), nil
}
