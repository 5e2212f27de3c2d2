package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/papapumpkin/linkrank/internal/centrality"
	"github.com/papapumpkin/linkrank/internal/config"
	"github.com/papapumpkin/linkrank/internal/edgelist"
	"github.com/papapumpkin/linkrank/internal/export"
	"github.com/papapumpkin/linkrank/internal/graph"
	"github.com/papapumpkin/linkrank/internal/logging"
	"github.com/papapumpkin/linkrank/internal/rank"
	"github.com/papapumpkin/linkrank/internal/telemetry"
	"github.com/papapumpkin/linkrank/internal/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <edge-list.tsv>",
	Short: "Compute centrality rankings for an edge list",
	Long: `Reads the edge list, builds forward and reverse adjacency, and computes
out/in degree and out/in closeness centrality for every node in parallel.

The ranked report is written to stdout. Progress goes to stderr. Use
--toml-out and --sqlite-out to persist the results.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	addAnalyzeFlags(analyzeCmd.Flags())
	rootCmd.AddCommand(analyzeCmd)
}

// analyzeFlags maps flag names to config keys.
var analyzeFlags = []struct{ flag, key string }{
	{"workers", "workers"},
	{"top-k", "top_k"},
	{"dedupe", "dedupe"},
	{"degree-denominator", "degree_denominator"},
	{"source-column", "source_column"},
	{"target-column", "target_column"},
	{"delimiter", "delimiter"},
	{"format", "format"},
	{"toml-out", "toml_out"},
	{"sqlite-out", "sqlite_out"},
	{"telemetry", "telemetry_path"},
}

func addAnalyzeFlags(f *pflag.FlagSet) {
	f.IntP("workers", "w", 0, "worker pool size (0 = number of CPUs)")
	f.IntP("top-k", "k", 5, "entries per ranked list")
	f.Bool("dedupe", false, "drop repeated source/target pairs before counting degree (without it, degree can exceed 1)")
	f.String("degree-denominator", string(centrality.DenominatorN), `divide degree by "n" or "n-1"`)
	f.String("source-column", edgelist.DefaultSourceColumn, "header of the source column")
	f.String("target-column", edgelist.DefaultTargetColumn, "header of the target column")
	f.String("delimiter", "\t", "field delimiter")
	f.StringP("format", "o", "text", "report format: text or json")
	f.String("toml-out", "", "also write the report to this TOML file")
	f.String("sqlite-out", "", "also store every node's scores in this SQLite database")
	f.String("telemetry", "", "append JSONL run events to this file")
}

// bindAnalyzeFlags binds the flags of the command actually being run, so the
// root shorthand and the analyze subcommand share config keys.
func bindAnalyzeFlags(f *pflag.FlagSet) {
	for _, fk := range analyzeFlags {
		if fl := f.Lookup(fk.flag); fl != nil {
			_ = viper.BindPFlag(fk.key, fl)
		}
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	bindAnalyzeFlags(cmd.Flags())
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	printer := ui.New()
	if cfg.Verbose {
		printer.Banner(buildVersion())
	}
	logger := logging.New(logging.Options{Verbose: cfg.Verbose, Prefix: "linkrank"})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = analyzeFile(ctx, cfg, args[0], analyzeEnv{
		stdout:  cmd.OutOrStdout(),
		printer: printer,
		logger:  logger,
	})
	return err
}

// analyzeEnv carries the outputs of one analysis run.
type analyzeEnv struct {
	stdout  io.Writer
	printer *ui.Printer
	logger  *log.Logger
	now     func() time.Time
}

// analyzeFile runs the whole pipeline for one input: read, build, compute
// every metric, rank, render, and export. It returns the report it printed.
func analyzeFile(ctx context.Context, cfg config.Config, input string, env analyzeEnv) (report *rank.Report, err error) {
	if env.now == nil {
		env.now = time.Now
	}
	if env.logger == nil {
		env.logger = logging.Discard()
	}
	runID := uuid.NewString()
	started := env.now()
	logger := env.logger.With("run", runID[:8])

	emitter, err := openEmitter(cfg.TelemetryPath, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = emitter.Record(telemetry.KindRunFailed, "", map[string]any{"error": err.Error()})
		}
		if cerr := emitter.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	_ = emitter.Record(telemetry.KindRunStart, "", map[string]any{
		"input":  input,
		"dedupe": cfg.Dedupe,
	})

	env.printer.Phase("reading " + input)
	t0 := env.now()
	edges, err := readEdges(input, cfg.ParserOptions())
	if err != nil {
		return nil, err
	}
	env.printer.PhaseDone(fmt.Sprintf("read %d edges", len(edges)), env.now().Sub(t0))

	t0 = env.now()
	g, err := graph.Build(edges, graph.WithDedupe(cfg.Dedupe))
	if err != nil {
		return nil, err
	}
	workers := workerCount(cfg.Workers, g.Len())
	env.printer.GraphSummary(g.Len(), g.EdgeCount(), g.DuplicateCount())
	logger.Debug("graph built", "nodes", g.Len(), "edges", g.EdgeCount(), "workers", workers, "elapsed", env.now().Sub(t0))
	_ = emitter.Record(telemetry.KindGraphBuilt, "", map[string]any{
		"nodes":      g.Len(),
		"edges":      g.EdgeCount(),
		"duplicates": g.DuplicateCount(),
		"workers":    workers,
	})

	table, err := computeMetrics(ctx, g, cfg, env, emitter, logger)
	if err != nil {
		return nil, err
	}

	report, err = rank.Build(g, table, cfg.TopK)
	if err != nil {
		return nil, err
	}
	report.RunID = runID

	strategy, err := rank.StrategyFor(cfg.Format)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(env.stdout, strategy.Render(report)); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	res := export.Result{
		RunID:      runID,
		Input:      input,
		Workers:    workers,
		StartedAt:  started,
		FinishedAt: env.now(),
		Graph:      g,
		Table:      table,
		Report:     report,
	}
	if err := exportResult(ctx, cfg, res, env); err != nil {
		return report, err
	}

	_ = emitter.Record(telemetry.KindRunDone, "", map[string]any{
		"elapsed_ms": env.now().Sub(started).Milliseconds(),
	})
	logger.Info("run complete", "nodes", g.Len(), "elapsed", env.now().Sub(started))
	return report, nil
}

func openEmitter(path, runID string) (*telemetry.Emitter, error) {
	if path == "" {
		return nil, nil
	}
	return telemetry.NewEmitter(path, runID)
}

// computeMetrics fills the score table one metric at a time so each can be
// timed and reported separately.
func computeMetrics(ctx context.Context, g *graph.Graph, cfg config.Config, env analyzeEnv, emitter *telemetry.Emitter, logger *log.Logger) (*centrality.ScoreTable, error) {
	table := &centrality.ScoreTable{}
	opts := cfg.CentralityOptions()

	for _, m := range centrality.Metrics {
		_ = emitter.Record(telemetry.KindMetricStart, m.String(), nil)
		progress := newProgressReporter(env.printer, m.Label())
		opts.Progress = progress.report

		t0 := env.now()
		col, err := centrality.ComputeAll(ctx, g, m, opts)
		progress.finish()
		if err != nil {
			return nil, err
		}
		elapsed := env.now().Sub(t0)
		table.Set(m, col)

		env.printer.PhaseDone(m.Label(), elapsed)
		logger.Debug("metric done", "metric", m, "elapsed", elapsed)
		_ = emitter.Record(telemetry.KindMetricDone, m.String(), map[string]any{
			"elapsed_ms": elapsed.Milliseconds(),
		})
	}
	return table, nil
}

// exportResult hands res to every configured sink and closes them all.
func exportResult(ctx context.Context, cfg config.Config, res export.Result, env analyzeEnv) error {
	var sinks []export.Sink
	if cfg.TOMLOut != "" {
		sinks = append(sinks, &export.TOMLSink{Path: cfg.TOMLOut})
	}
	if cfg.SQLiteOut != "" {
		s, err := export.NewSQLiteSink(ctx, cfg.SQLiteOut)
		if err != nil {
			return err
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 0 {
		return nil
	}

	var result *multierror.Error
	if err := export.WriteAll(ctx, res, sinks...); err != nil {
		result = multierror.Append(result, err)
	}
	if err := export.CloseAll(sinks...); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	if cfg.TOMLOut != "" {
		env.printer.Exported("toml", cfg.TOMLOut)
	}
	if cfg.SQLiteOut != "" {
		env.printer.Exported("sqlite", cfg.SQLiteOut)
	}
	return nil
}

func workerCount(configured, n int) int {
	return centrality.Options{Workers: configured}.PoolSize(n)
}

// progressReporter draws an in-place progress line for one metric. Workers
// call report concurrently; redraws are limited to whole-percent steps.
type progressReporter struct {
	printer *ui.Printer
	label   string

	mu      sync.Mutex
	lastPct int
	drawn   bool
}

func newProgressReporter(p *ui.Printer, label string) *progressReporter {
	return &progressReporter{printer: p, label: label, lastPct: -1}
}

func (r *progressReporter) report(_ centrality.Metric, done, total int) {
	pct := 100
	if total > 0 {
		pct = done * 100 / total
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if pct <= r.lastPct {
		return
	}
	r.lastPct = pct
	r.drawn = true
	r.printer.MetricProgress(r.label, done, total)
}

func (r *progressReporter) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drawn {
		r.printer.MetricProgressDone()
	}
}

// readEdges parses the edge list at input, or stdin when input is "-".
func readEdges(input string, opts edgelist.Options) ([]edgelist.Edge, error) {
	if input == "-" {
		return edgelist.Read(os.Stdin, opts)
	}
	return edgelist.ReadFile(input, opts)
}
