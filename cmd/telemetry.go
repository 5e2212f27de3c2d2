package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/linkrank/internal/telemetry"
	"github.com/papapumpkin/linkrank/internal/ui"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry [events.jsonl]",
	Short: "View JSONL telemetry events written by analyze --telemetry",
	Long: `Reads and formats a JSONL telemetry file.

Without a file argument, uses telemetry_path from the config.
With --run, shows only events whose run ID starts with the given prefix.
With --follow (-f), watches the file for new events (like tail -f).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().String("run", "", "only show events of runs with this ID prefix")
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	runPrefix, _ := cmd.Flags().GetString("run")
	follow, _ := cmd.Flags().GetBool("follow")

	path := viper.GetString("telemetry_path")
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("telemetry: no file given and telemetry_path is not set")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	w := cmd.OutOrStdout()
	filter := eventFilter(runPrefix)

	tail := &lineTail{r: bufio.NewReader(f)}
	if err := tail.printAvailable(w, filter); err != nil {
		return fmt.Errorf("telemetry: read %s: %w", path, err)
	}

	if !follow {
		tail.flush(w, filter)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return tailFollow(ctx, w, tail, path, filter)
}

// eventFilter keeps events whose run ID starts with prefix.
func eventFilter(prefix string) func(telemetry.Event) bool {
	return func(evt telemetry.Event) bool {
		return prefix == "" || strings.HasPrefix(evt.RunID, prefix)
	}
}

// lineTail reads a growing JSONL file. A trailing line without its newline
// is held back until the rest of it arrives.
type lineTail struct {
	r       *bufio.Reader
	pending string
}

// printAvailable prints every complete line currently readable.
func (t *lineTail) printAvailable(w io.Writer, keep func(telemetry.Event) bool) error {
	for {
		chunk, err := t.r.ReadString('\n')
		t.pending += chunk
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		printEvent(w, t.pending, keep)
		t.pending = ""
	}
}

// flush prints a held-back final line, for files that do not end in a
// newline.
func (t *lineTail) flush(w io.Writer, keep func(telemetry.Event) bool) {
	if t.pending != "" {
		printEvent(w, t.pending, keep)
		t.pending = ""
	}
}

// tailFollow watches the file for new data using fsnotify and prints new events.
func tailFollow(ctx context.Context, w io.Writer, tail *lineTail, path string, keep func(telemetry.Event) bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == 0 {
				continue
			}
			if err := tail.printAvailable(w, keep); err != nil {
				return fmt.Errorf("telemetry: read %s: %w", path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("telemetry: watch %s: %w", path, err)
		}
	}
}

// printEvent decodes a JSONL line and prints a human-readable representation.
func printEvent(w io.Writer, line string, keep func(telemetry.Event) bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	evt, err := telemetry.ParseLine([]byte(line))
	if err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}
	if !keep(evt) {
		return
	}
	fmt.Fprintln(w, ui.EventLine(evt))
}
