package rank

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/linkrank/internal/centrality"
	"github.com/papapumpkin/linkrank/internal/graph"
)

// ErrTableMismatch is returned when a score table does not cover the graph.
var ErrTableMismatch = errors.New("score table does not match graph")

// RankedNode is an Entry with its name resolved.
type RankedNode struct {
	Rank  int     `json:"rank" toml:"rank"`
	Name  string  `json:"name" toml:"name"`
	Score float64 `json:"score" toml:"score"`
}

// MetricReport is the ranked list and distribution for one metric.
type MetricReport struct {
	Metric  string       `json:"metric" toml:"metric"`
	Label   string       `json:"label" toml:"label"`
	Top     []RankedNode `json:"top" toml:"top"`
	Summary Summary      `json:"summary" toml:"summary"`
}

// Report is everything the CLI prints or exports about one run.
type Report struct {
	RunID      string         `json:"run_id,omitempty" toml:"run_id,omitempty"`
	Nodes      int            `json:"nodes" toml:"nodes"`
	Edges      int            `json:"edges" toml:"edges"`
	Duplicates int            `json:"duplicates_dropped" toml:"duplicates_dropped"`
	TopK       int            `json:"top_k" toml:"top_k"`
	Metrics    []MetricReport `json:"metrics" toml:"metrics"`
}

// Build ranks every column of table against g, keeping the k best nodes per
// metric in centrality.Metrics order.
func Build(g *graph.Graph, table *centrality.ScoreTable, k int) (*Report, error) {
	if g == nil {
		return nil, graph.ErrNilGraph
	}
	if table == nil || table.Len() != g.Len() {
		return nil, fmt.Errorf("%w: %d nodes, table covers %d", ErrTableMismatch, g.Len(), tableLen(table))
	}

	r := &Report{
		Nodes:      g.Len(),
		Edges:      g.EdgeCount(),
		Duplicates: g.DuplicateCount(),
		TopK:       k,
		Metrics:    make([]MetricReport, 0, len(centrality.Metrics)),
	}
	for _, m := range centrality.Metrics {
		col := table.Column(m)
		if len(col) != g.Len() {
			return nil, fmt.Errorf("%w: %s column has %d cells", ErrTableMismatch, m, len(col))
		}
		top := TopK(col, k)
		named := make([]RankedNode, len(top))
		for i, e := range top {
			named[i] = RankedNode{Rank: i + 1, Name: g.Name(e.ID), Score: e.Score}
		}
		r.Metrics = append(r.Metrics, MetricReport{
			Metric:  m.String(),
			Label:   m.Label(),
			Top:     named,
			Summary: Summarize(col),
		})
	}
	return r, nil
}

func tableLen(t *centrality.ScoreTable) int {
	if t == nil {
		return 0
	}
	return t.Len()
}
