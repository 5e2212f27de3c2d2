package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/linkrank/internal/centrality"
	"github.com/papapumpkin/linkrank/internal/export"
	"github.com/papapumpkin/linkrank/internal/rank"
	"github.com/papapumpkin/linkrank/internal/ui"
)

var runsCmd = &cobra.Command{
	Use:   "runs [scores.db]",
	Short: "List runs stored by analyze --sqlite-out",
	Long: `Lists the runs stored in a SQLite results database, newest first.

Without a file argument, uses sqlite_out from the config. With --run, prints
the top entries of every metric for the run whose ID starts with the prefix.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("run", "", "show the rankings of the run with this ID prefix")
	runsCmd.Flags().IntP("top-k", "k", 5, "entries per ranked list with --run")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	path := viper.GetString("sqlite_out")
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("runs: no database given and sqlite_out is not set")
	}
	prefix, _ := cmd.Flags().GetString("run")
	k, _ := cmd.Flags().GetInt("top-k")

	sink, err := export.NewSQLiteSink(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer sink.Close()

	if prefix == "" {
		return listRuns(cmd.Context(), cmd.OutOrStdout(), sink)
	}
	return showRun(cmd.Context(), cmd.OutOrStdout(), sink, prefix, k)
}

func listRuns(ctx context.Context, w io.Writer, sink *export.SQLiteSink) error {
	runs, err := sink.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return nil
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "DURATION", "NODES", "EDGES", "INPUT")
	for _, r := range runs {
		t.Row(shortRunID(r.RunID), ui.RelativeTime(r.StartedAt),
			ui.FormatDuration(r.FinishedAt.Sub(r.StartedAt)),
			strconv.Itoa(r.Nodes), strconv.Itoa(r.Edges), r.Input)
	}
	_, err = fmt.Fprintln(w, t.String())
	return err
}

// showRun prints the top k nodes per metric for the single run matching
// prefix.
func showRun(ctx context.Context, w io.Writer, sink *export.SQLiteSink, prefix string, k int) error {
	runs, err := sink.Runs(ctx)
	if err != nil {
		return err
	}
	var match []export.RunInfo
	for _, r := range runs {
		if strings.HasPrefix(r.RunID, prefix) {
			match = append(match, r)
		}
	}
	switch len(match) {
	case 0:
		return fmt.Errorf("runs: %w: %s", export.ErrRunNotFound, prefix)
	case 1:
	default:
		return fmt.Errorf("runs: prefix %q matches %d runs", prefix, len(match))
	}

	run := match[0]
	names, table, err := sink.LoadScores(ctx, run.RunID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Run %s over %s: %d nodes, %d edges\n", run.RunID, run.Input, run.Nodes, run.Edges)
	for _, m := range centrality.Metrics {
		fmt.Fprintf(w, "\n%s:\n", m.Label())
		for i, e := range rank.TopK(table.Column(m), k) {
			fmt.Fprintf(w, "  %d. %s  %.6f\n", i+1, names[e.ID], e.Score)
		}
	}
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
