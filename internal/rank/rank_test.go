package rank

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/linkrank/internal/centrality"
	"github.com/papapumpkin/linkrank/internal/edgelist"
	"github.com/papapumpkin/linkrank/internal/graph"
)

func buildReport(t *testing.T, k int, pairs ...[2]string) (*graph.Graph, *Report) {
	t.Helper()
	es := make([]edgelist.Edge, len(pairs))
	for i, p := range pairs {
		es[i] = edgelist.Edge{Source: p[0], Target: p[1]}
	}
	g, err := graph.Build(es)
	require.NoError(t, err)
	table, err := centrality.Compute(context.Background(), g, centrality.Options{Workers: 2})
	require.NoError(t, err)
	r, err := Build(g, table, k)
	require.NoError(t, err)
	return g, r
}

func TestTopK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scores []float64
		k      int
		want   []Entry
	}{
		{"empty", nil, 5, []Entry{}},
		{"k zero", []float64{1, 2}, 0, []Entry{}},
		{"negative k", []float64{1, 2}, -3, []Entry{}},
		{
			"descending",
			[]float64{0.1, 0.9, 0.5},
			2,
			[]Entry{{ID: 1, Score: 0.9}, {ID: 2, Score: 0.5}},
		},
		{
			"k beyond length",
			[]float64{0.2, 0.4},
			10,
			[]Entry{{ID: 1, Score: 0.4}, {ID: 0, Score: 0.2}},
		},
		{
			"ties by first-seen id",
			[]float64{0.5, 0.7, 0.5, 0.7, 0.5},
			4,
			[]Entry{{ID: 1, Score: 0.7}, {ID: 3, Score: 0.7}, {ID: 0, Score: 0.5}, {ID: 2, Score: 0.5}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TopK(tt.scores, tt.k))
		})
	}
}

func TestTopK_DoesNotModifyInput(t *testing.T) {
	t.Parallel()
	scores := []float64{3, 1, 2}
	TopK(scores, 3)
	assert.Equal(t, []float64{3, 1, 2}, scores)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{Min: 0.5, Max: 0.5, Mean: 0.5}, Summarize([]float64{0.5}))

	s := Summarize([]float64{0, 1, 2, 3})
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.InDelta(t, 1.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
	assert.Equal(t, 1, s.Zeros)
}

func TestBuild_Triangle(t *testing.T) {
	t.Parallel()
	_, r := buildReport(t, 5, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"A", "C"})

	assert.Equal(t, 3, r.Nodes)
	assert.Equal(t, 3, r.Edges)
	require.Len(t, r.Metrics, 4)

	byMetric := map[string]MetricReport{}
	for _, m := range r.Metrics {
		byMetric[m.Metric] = m
	}

	out := byMetric["out_degree"]
	require.Len(t, out.Top, 3)
	assert.Equal(t, RankedNode{Rank: 1, Name: "A", Score: 2.0 / 3.0}, out.Top[0])

	outClose := byMetric["out_closeness"]
	assert.Equal(t, "A", outClose.Top[0].Name)
	assert.Equal(t, 1.0, outClose.Top[0].Score)
	assert.Equal(t, "C", outClose.Top[2].Name)
	assert.Equal(t, 0.0, outClose.Top[2].Score)

	inClose := byMetric["in_closeness"]
	assert.Equal(t, "C", inClose.Top[0].Name)
}

func TestBuild_EmptyGraph(t *testing.T) {
	t.Parallel()
	_, r := buildReport(t, 5)
	assert.Equal(t, 0, r.Nodes)
	assert.Equal(t, 0, r.Edges)
	for _, m := range r.Metrics {
		assert.Empty(t, m.Top, m.Metric)
	}
}

func TestBuild_Mismatch(t *testing.T) {
	t.Parallel()
	g, err := graph.Build([]edgelist.Edge{{Source: "A", Target: "B"}})
	require.NoError(t, err)

	_, err = Build(g, &centrality.ScoreTable{}, 5)
	assert.ErrorIs(t, err, ErrTableMismatch)

	_, err = Build(g, nil, 5)
	assert.ErrorIs(t, err, ErrTableMismatch)

	_, err = Build(nil, &centrality.ScoreTable{}, 5)
	assert.ErrorIs(t, err, graph.ErrNilGraph)
}

func TestTextStrategy(t *testing.T) {
	t.Parallel()
	_, r := buildReport(t, 2, [2]string{"A", "B"}, [2]string{"C", "D"})
	text := TextStrategy{}.Render(r)

	assert.True(t, strings.HasPrefix(text, "The network has 4 nodes and 2 edges\n"), text)
	for _, label := range []string{"out degree", "in degree", "out closeness", "in closeness"} {
		assert.Contains(t, text, "The top 2 subreddits with the highest "+label+" centrality are:")
	}
	assert.Contains(t, text, "1. A  0.333333")
	assert.NotContains(t, text, "duplicate")
}

func TestTextStrategy_EmptyGraph(t *testing.T) {
	t.Parallel()
	_, r := buildReport(t, 5)
	text := TextStrategy{}.Render(r)
	assert.Contains(t, text, "The network has 0 nodes and 0 edges")
	assert.Equal(t, 4, strings.Count(text, "(none)"))
	assert.Equal(t, "No report.", TextStrategy{}.Render(nil))
}

func TestJSONStrategy(t *testing.T) {
	t.Parallel()
	_, r := buildReport(t, 1, [2]string{"A", "B"})
	r.RunID = "run-1"

	for _, s := range []JSONStrategy{{}, {Indent: "  "}} {
		var got Report
		require.NoError(t, json.Unmarshal([]byte(s.Render(r)), &got))
		assert.Equal(t, *r, got)
	}
}

func TestStrategyFor(t *testing.T) {
	t.Parallel()

	s, err := StrategyFor("")
	require.NoError(t, err)
	assert.IsType(t, TextStrategy{}, s)

	s, err = StrategyFor("json")
	require.NoError(t, err)
	assert.IsType(t, JSONStrategy{}, s)

	_, err = StrategyFor("yaml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
