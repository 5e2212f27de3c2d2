package rank

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned by StrategyFor for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// ReportStrategy defines how a Report is presented. Each implementation is a
// different view of the same ranked results.
type ReportStrategy interface {
	Render(r *Report) string
}

// StrategyFor maps a configured format name ("text" or "json") to its
// strategy. The empty string selects text.
func StrategyFor(format string) (ReportStrategy, error) {
	switch format {
	case "", "text":
		return TextStrategy{}, nil
	case "json":
		return JSONStrategy{Indent: "  "}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// TextStrategy renders the human-readable report: the node and edge counts
// followed by one ranked list per metric.
type TextStrategy struct{}

// Render produces the plain-text report.
func (TextStrategy) Render(r *Report) string {
	if r == nil {
		return "No report."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The network has %d nodes and %d edges\n", r.Nodes, r.Edges)
	if r.Duplicates > 0 {
		fmt.Fprintf(&b, "(%d duplicate edges ignored for degree counts)\n", r.Duplicates)
	}
	for _, m := range r.Metrics {
		fmt.Fprintf(&b, "The top %d subreddits with the highest %s are:\n", r.TopK, m.Label)
		if len(m.Top) == 0 {
			b.WriteString("  (none)\n")
			continue
		}
		width := nameWidth(m.Top)
		for _, n := range m.Top {
			fmt.Fprintf(&b, "  %d. %-*s  %.6f\n", n.Rank, width, n.Name, n.Score)
		}
	}
	return b.String()
}

// JSONStrategy renders the report as a single JSON document.
type JSONStrategy struct {
	Indent string
}

// Render produces the JSON report, newline terminated.
func (s JSONStrategy) Render(r *Report) string {
	var (
		out []byte
		err error
	)
	if s.Indent != "" {
		out, err = json.MarshalIndent(r, "", s.Indent)
	} else {
		out, err = json.Marshal(r)
	}
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(out) + "\n"
}

func nameWidth(nodes []RankedNode) int {
	w := 0
	for _, n := range nodes {
		if len(n.Name) > w {
			w = len(n.Name)
		}
	}
	return w
}
