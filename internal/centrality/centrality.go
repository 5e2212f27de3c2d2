package centrality

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/papapumpkin/linkrank/internal/graph"
)

// ErrUnknownMetric is returned for a Metric outside the defined set.
var ErrUnknownMetric = errors.New("unknown metric")

// ErrUnknownDenominator is returned for an unsupported degree denominator.
var ErrUnknownDenominator = errors.New("unknown degree denominator")

// Metric names one column of the ScoreTable.
type Metric int

const (
	OutDegree Metric = iota
	InDegree
	OutCloseness
	InCloseness
)

// Metrics lists every metric in report order.
var Metrics = []Metric{OutDegree, InDegree, OutCloseness, InCloseness}

func (m Metric) String() string {
	switch m {
	case OutDegree:
		return "out_degree"
	case InDegree:
		return "in_degree"
	case OutCloseness:
		return "out_closeness"
	case InCloseness:
		return "in_closeness"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// Label is the human-readable name used in reports.
func (m Metric) Label() string {
	switch m {
	case OutDegree:
		return "out degree centrality"
	case InDegree:
		return "in degree centrality"
	case OutCloseness:
		return "out closeness centrality"
	case InCloseness:
		return "in closeness centrality"
	default:
		return m.String()
	}
}

// direction is the traversal a closeness metric follows. Out-closeness
// measures how close a node is to the nodes it links to.
func (m Metric) direction() graph.Direction {
	if m == InCloseness || m == InDegree {
		return graph.Reverse
	}
	return graph.Forward
}

func (m Metric) valid() bool {
	return m >= OutDegree && m <= InCloseness
}

// Denominator selects what degree counts are divided by.
type Denominator string

const (
	// DenominatorN divides by the node count N.
	DenominatorN Denominator = "n"
	// DenominatorNMinus1 divides by N-1, the largest possible simple degree.
	DenominatorNMinus1 Denominator = "n-1"
)

// ParseDenominator validates a configured denominator name.
func ParseDenominator(s string) (Denominator, error) {
	switch Denominator(s) {
	case DenominatorN, DenominatorNMinus1:
		return Denominator(s), nil
	case "":
		return DenominatorN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDenominator, s)
	}
}

// Options configures ComputeAll and Compute.
type Options struct {
	// Workers is the pool size. Zero or negative means runtime.GOMAXPROCS(0).
	Workers int

	// Denominator for degree centrality; DenominatorN when empty.
	Denominator Denominator

	// Progress, if set, is called from worker goroutines as nodes complete,
	// with the running total for the metric. It must be safe for concurrent use.
	Progress func(m Metric, done, total int)
}

// PoolSize returns the number of workers used for a graph of n nodes: the
// configured size clamped to [1, n].
func (o Options) PoolSize(n int) int {
	w := o.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// ScoreTable holds all four centrality columns, indexed by graph.NodeID.
type ScoreTable struct {
	OutDegree    []float64
	InDegree     []float64
	OutCloseness []float64
	InCloseness  []float64
}

// Column returns the scores for m, or nil for an unknown metric.
func (t *ScoreTable) Column(m Metric) []float64 {
	switch m {
	case OutDegree:
		return t.OutDegree
	case InDegree:
		return t.InDegree
	case OutCloseness:
		return t.OutCloseness
	case InCloseness:
		return t.InCloseness
	default:
		return nil
	}
}

// Len returns the number of nodes the table covers.
func (t *ScoreTable) Len() int {
	return len(t.OutDegree)
}

// Set stores col as the column for m. Unknown metrics are ignored.
func (t *ScoreTable) Set(m Metric, col []float64) {
	switch m {
	case OutDegree:
		t.OutDegree = col
	case InDegree:
		t.InDegree = col
	case OutCloseness:
		t.OutCloseness = col
	case InCloseness:
		t.InCloseness = col
	}
}

// ComputationFault reports a failure inside one node's task. The whole
// computation is abandoned when one occurs.
type ComputationFault struct {
	Metric Metric
	Node   graph.NodeID
	Err    error
}

func (f *ComputationFault) Error() string {
	return fmt.Sprintf("centrality: %s failed at node %d: %v", f.Metric, f.Node, f.Err)
}

func (f *ComputationFault) Unwrap() error { return f.Err }
