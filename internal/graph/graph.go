// Package graph provides an immutable directed graph over interned node names
// with forward and reverse adjacency, plus a breadth-first distance engine.
//
// Node names are interned into dense NodeIDs in first-seen order, so every
// per-node table in the rest of the program is a plain slice indexed by ID.
// Adjacency is stored in compressed sparse rows for both directions.
package graph

import (
	"errors"
	"fmt"
	"math"

	"github.com/papapumpkin/linkrank/internal/edgelist"
)

// ErrNilGraph is returned when an operation receives a nil *Graph.
var ErrNilGraph = errors.New("graph is nil")

// ErrNodeOutOfRange is returned when a NodeID is not in [0, N).
var ErrNodeOutOfRange = errors.New("node id out of range")

// ErrEmptyName is returned when an edge has an empty source or target name.
var ErrEmptyName = errors.New("empty node name")

// ErrTooLarge is returned when the edge count exceeds what 32-bit offsets hold.
var ErrTooLarge = errors.New("graph too large")

// NodeID is a dense node identifier in [0, N).
type NodeID int32

// Direction selects which adjacency a traversal follows.
type Direction int

const (
	Forward Direction = iota // source → target
	Reverse                  // target → source
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// csr is one direction of adjacency: the neighbors of u are
// adj[off[u]:off[u+1]].
type csr struct {
	off []int32
	adj []NodeID
}

func (c *csr) neighbors(u NodeID) []NodeID {
	return c.adj[c.off[u]:c.off[u+1]]
}

func (c *csr) degree(u NodeID) int {
	return int(c.off[u+1] - c.off[u])
}

// Graph is an immutable directed graph. It is safe for concurrent reads from
// any number of goroutines.
type Graph struct {
	names []string
	index map[string]NodeID

	forward csr
	reverse csr

	duplicates int
}

type buildOptions struct {
	dedupe bool
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithDedupe drops repeated (source, target) pairs before adjacency is built.
// Distances are unaffected; degree counts then see each pair once.
func WithDedupe(dedupe bool) BuildOption {
	return func(o *buildOptions) { o.dedupe = dedupe }
}

// Build interns every name in edges (source before target, rows in order) and
// constructs forward and reverse adjacency. An empty edge list yields a valid
// graph with no nodes.
func Build(edges []edgelist.Edge, opts ...BuildOption) (*Graph, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(edges) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d edges", ErrTooLarge, len(edges))
	}

	g := &Graph{index: make(map[string]NodeID)}

	src := make([]NodeID, 0, len(edges))
	dst := make([]NodeID, 0, len(edges))
	var seen map[uint64]struct{}
	if o.dedupe {
		seen = make(map[uint64]struct{}, len(edges))
	}

	for i, e := range edges {
		if e.Source == "" || e.Target == "" {
			return nil, fmt.Errorf("%w: edge %d", ErrEmptyName, i)
		}
		u := g.intern(e.Source)
		v := g.intern(e.Target)
		if seen != nil {
			key := uint64(uint32(u))<<32 | uint64(uint32(v))
			if _, dup := seen[key]; dup {
				g.duplicates++
				continue
			}
			seen[key] = struct{}{}
		}
		src = append(src, u)
		dst = append(dst, v)
	}

	n := len(g.names)
	g.forward = buildCSR(n, src, dst)
	g.reverse = buildCSR(n, dst, src)
	return g, nil
}

// intern returns the ID for name, assigning the next free ID on first sight.
func (g *Graph) intern(name string) NodeID {
	if id, ok := g.index[name]; ok {
		return id
	}
	id := NodeID(len(g.names))
	g.names = append(g.names, name)
	g.index[name] = id
	return id
}

// buildCSR lays out the edges from[i]→to[i] grouped by from. Within a row,
// neighbors keep their input order.
func buildCSR(n int, from, to []NodeID) csr {
	off := make([]int32, n+1)
	for _, u := range from {
		off[u+1]++
	}
	for i := 1; i <= n; i++ {
		off[i] += off[i-1]
	}

	adj := make([]NodeID, len(from))
	next := make([]int32, n)
	copy(next, off[:n])
	for i, u := range from {
		adj[next[u]] = to[i]
		next[u]++
	}
	return csr{off: off, adj: adj}
}

// Len returns N, the number of distinct nodes.
func (g *Graph) Len() int {
	return len(g.names)
}

// EdgeCount returns E, the number of input edges including duplicates, even
// when WithDedupe kept them out of the adjacency.
func (g *Graph) EdgeCount() int {
	return len(g.forward.adj) + g.duplicates
}

// StoredEdgeCount returns the number of edges held in the adjacency.
func (g *Graph) StoredEdgeCount() int {
	return len(g.forward.adj)
}

// DuplicateCount returns how many repeated edges WithDedupe dropped.
func (g *Graph) DuplicateCount() int {
	return g.duplicates
}

// Name returns the original name of id. It panics if id is out of range.
func (g *Graph) Name(id NodeID) string {
	return g.names[id]
}

// Names returns node names indexed by NodeID. The slice must not be modified.
func (g *Graph) Names() []string {
	return g.names
}

// ID looks up the NodeID for a name.
func (g *Graph) ID(name string) (NodeID, bool) {
	id, ok := g.index[name]
	return id, ok
}

// Contains reports whether id is a valid node of g.
func (g *Graph) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(g.names)
}

// Neighbors returns the adjacency of id in direction dir. The returned slice
// aliases internal storage and must not be modified.
func (g *Graph) Neighbors(id NodeID, dir Direction) []NodeID {
	return g.adjacency(dir).neighbors(id)
}

// OutDegree returns |forward[id]|.
func (g *Graph) OutDegree(id NodeID) int {
	return g.forward.degree(id)
}

// InDegree returns |reverse[id]|.
func (g *Graph) InDegree(id NodeID) int {
	return g.reverse.degree(id)
}

func (g *Graph) adjacency(dir Direction) *csr {
	if dir == Reverse {
		return &g.reverse
	}
	return &g.forward
}
