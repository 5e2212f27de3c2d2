package centrality

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/linkrank/internal/graph"
)

// checkEvery is how many nodes a worker processes between cancellation
// checks and progress reports.
const checkEvery = 64

// partition is the half-open node range [lo, hi) owned by one worker.
type partition struct {
	lo, hi graph.NodeID
}

// partitions splits [0, n) into at most k contiguous, disjoint ranges whose
// union is the full range. Sizes differ by at most one.
func partitions(n, k int) []partition {
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	parts := make([]partition, 0, k)
	base, extra := n/k, n%k
	lo := 0
	for i := 0; i < k; i++ {
		size := base
		if i < extra {
			size++
		}
		parts = append(parts, partition{lo: graph.NodeID(lo), hi: graph.NodeID(lo + size)})
		lo += size
	}
	return parts
}

// ComputeAll computes metric for every node of g and returns the column
// indexed by NodeID. Each worker writes only the cells of its own partition,
// so the column needs no locking; it is returned only after every worker has
// finished. The first failure (cancellation or a ComputationFault) cancels
// the remaining workers and no column is returned.
func ComputeAll(ctx context.Context, g *graph.Graph, metric Metric, opts Options) ([]float64, error) {
	if g == nil {
		return nil, graph.ErrNilGraph
	}
	if !metric.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMetric, int(metric))
	}
	denom, err := ParseDenominator(string(opts.Denominator))
	if err != nil {
		return nil, err
	}
	opts.Denominator = denom

	n := g.Len()
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var done atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	for _, p := range partitions(n, opts.PoolSize(n)) {
		eg.Go(func() error {
			return runPartition(egCtx, g, metric, opts, p, out, &done)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Compute runs ComputeAll for all four metrics.
func Compute(ctx context.Context, g *graph.Graph, opts Options) (*ScoreTable, error) {
	table := &ScoreTable{}
	for _, m := range Metrics {
		col, err := ComputeAll(ctx, g, m, opts)
		if err != nil {
			return nil, err
		}
		table.Set(m, col)
	}
	return table, nil
}

// runPartition fills out[p.lo:p.hi]. A panic anywhere in the loop is turned
// into a ComputationFault naming the node being processed.
func runPartition(ctx context.Context, g *graph.Graph, metric Metric, opts Options, p partition, out []float64, done *atomic.Int64) error {
	current := p.lo
	var loopErr error
	var pc panics.Catcher
	pc.Try(func() {
		loopErr = scorePartition(ctx, g, metric, opts, p, out, done, &current)
	})
	if r := pc.Recovered(); r != nil {
		return &ComputationFault{Metric: metric, Node: current, Err: r.AsError()}
	}
	return loopErr
}

func scorePartition(ctx context.Context, g *graph.Graph, metric Metric, opts Options, p partition, out []float64, done *atomic.Int64, current *graph.NodeID) error {
	n := g.Len()
	dir := metric.direction()
	closeness := metric == OutCloseness || metric == InCloseness

	var w *graph.Walker
	if closeness {
		w = graph.NewWalker(g)
	}

	pending := 0
	report := func() {
		total := done.Add(int64(pending))
		pending = 0
		if opts.Progress != nil {
			opts.Progress(metric, int(total), n)
		}
	}

	for u := p.lo; u < p.hi; u++ {
		*current = u
		if closeness {
			out[u] = ClosenessFromReach(w.Walk(u, dir), n)
		} else {
			out[u] = Degree(g, u, dir, opts.Denominator)
		}

		pending++
		if pending == checkEvery {
			if err := ctx.Err(); err != nil {
				return err
			}
			report()
		}
	}
	if pending > 0 {
		report()
	}
	return nil
}
