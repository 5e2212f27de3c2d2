// Package export persists the results of a run: the ranked report as a TOML
// document and the full score table in a SQLite database.
package export

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/papapumpkin/linkrank/internal/centrality"
	"github.com/papapumpkin/linkrank/internal/graph"
	"github.com/papapumpkin/linkrank/internal/rank"
)

// ErrIncompleteResult is returned when a Result is missing a part a sink needs.
var ErrIncompleteResult = errors.New("export: incomplete result")

// Result is one finished run.
type Result struct {
	RunID      string
	Input      string
	Workers    int
	StartedAt  time.Time
	FinishedAt time.Time

	Graph  *graph.Graph
	Table  *centrality.ScoreTable
	Report *rank.Report
}

// Sink receives a finished Result.
type Sink interface {
	Write(ctx context.Context, res Result) error
	Close() error
}

// WriteAll hands res to every sink, continuing past failures. All errors are
// returned together.
func WriteAll(ctx context.Context, res Result, sinks ...Sink) error {
	var result *multierror.Error
	for _, s := range sinks {
		if err := s.Write(ctx, res); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// CloseAll closes every sink and returns the combined errors.
func CloseAll(sinks ...Sink) error {
	var result *multierror.Error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
