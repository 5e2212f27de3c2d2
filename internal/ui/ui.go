package ui

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/linkrank/internal/telemetry"
)

// ANSI color codes.
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	yellow  = "\033[33m"
	green   = "\033[32m"
	red     = "\033[31m"
	cyan    = "\033[36m"
	magenta = "\033[35m"
)

// Printer writes human-facing progress to stderr. Reports go to stdout and
// never pass through a Printer.
type Printer struct {
	w       io.Writer
	heading lipgloss.Style
}

// New returns a Printer on os.Stderr.
func New() *Printer {
	return NewTo(os.Stderr)
}

// NewTo returns a Printer writing to w. Styling adapts to whether w is a
// terminal.
func NewTo(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w: w,
		heading: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 2),
	}
}

// Banner prints the boxed program heading with version.
func (p *Printer) Banner(version string) {
	fmt.Fprintln(p.w, p.heading.Render("LINKRANK  centrality over link graphs  "+version))
}

// Phase announces the start of a pipeline step.
func (p *Printer) Phase(name string) {
	fmt.Fprintf(p.w, magenta+bold+"▶ %s"+reset+dim+"..."+reset+"\n", name)
}

// PhaseDone reports a finished step and how long it took.
func (p *Printer) PhaseDone(name string, elapsed time.Duration) {
	fmt.Fprintf(p.w, green+"✓ %s"+reset+dim+" (%s)"+reset+"\n", name, FormatDuration(elapsed))
}

// GraphSummary prints node and edge counts with thousands separators.
func (p *Printer) GraphSummary(nodes, edges, duplicates int) {
	fmt.Fprintf(p.w, cyan+"◆ graph"+reset+" %s nodes, %s edges",
		humanize.Comma(int64(nodes)), humanize.Comma(int64(edges)))
	if duplicates > 0 {
		fmt.Fprintf(p.w, dim+" (%s duplicates dropped)"+reset, humanize.Comma(int64(duplicates)))
	}
	fmt.Fprintln(p.w)
}

// MetricProgressLine formats a progress line without ANSI codes.
func MetricProgressLine(label string, done, total int) string {
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(done) / float64(total)
	}
	return fmt.Sprintf("[%s] %s/%s nodes (%.0f%%)", label,
		humanize.Comma(int64(done)), humanize.Comma(int64(total)), pct)
}

// MetricProgress overwrites the current line with the progress of one metric.
func (p *Printer) MetricProgress(label string, done, total int) {
	fmt.Fprintf(p.w, "\r"+cyan+"%s"+reset+"   ", MetricProgressLine(label, done, total))
}

// MetricProgressDone ends an in-place progress line.
func (p *Printer) MetricProgressDone() {
	fmt.Fprintln(p.w)
}

// Exported reports a result file written by a sink of the given kind.
func (p *Printer) Exported(kind, path string) {
	fmt.Fprintf(p.w, green+"✓ wrote %s"+reset+" %s\n", kind, path)
}

// Warn prints a non-fatal warning.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, yellow+bold+"⚠ "+reset+"%s\n", msg)
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, red+bold+"error: "+reset+"%s\n", msg)
}

// Info prints a dimmed informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w, dim+"%s"+reset+"\n", msg)
}

// EventLine formats a telemetry event without ANSI codes.
func EventLine(evt telemetry.Event) string {
	line := fmt.Sprintf("%s  %-12s", evt.Timestamp.Local().Format("15:04:05.000"), evt.Kind)
	if evt.RunID != "" {
		line += "  run=" + shortID(evt.RunID)
	}
	if evt.Metric != "" {
		line += "  metric=" + evt.Metric
	}
	if m, ok := evt.Data.(map[string]any); ok {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			line += fmt.Sprintf("  %s=%v", k, m[k])
		}
	} else if evt.Data != nil {
		line += fmt.Sprintf("  %v", evt.Data)
	}
	return line
}

// FormatDuration rounds d for display: milliseconds below a second, tenths
// of a second below a minute, whole seconds otherwise.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

// RelativeTime renders t relative to now, e.g. "3 minutes ago".
func RelativeTime(t time.Time) string {
	return humanize.Time(t)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
