// Package logging builds the structured console logger used across linkrank.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	// Verbose enables debug-level output.
	Verbose bool
	// Writer receives log lines; os.Stderr when nil.
	Writer io.Writer
	// Prefix is shown before every message, e.g. the subcommand name.
	Prefix string
}

// New returns a timestamped logger at info level, or debug when Verbose.
func New(opts Options) *log.Logger {
	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          opts.Prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
