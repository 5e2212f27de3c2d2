package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/linkrank/internal/rank"
)

// tomlDocument is the on-disk layout of a TOML report.
type tomlDocument struct {
	Input       string       `toml:"input,omitempty"`
	GeneratedAt time.Time    `toml:"generated_at"`
	Workers     int          `toml:"workers,omitempty"`
	DurationNs  int64        `toml:"duration_ns"`
	Report      *rank.Report `toml:"report"`
}

// WriteTOML writes r to path, replacing any existing file atomically.
func WriteTOML(path string, r *rank.Report) error {
	return writeTOML(path, tomlDocument{GeneratedAt: time.Now().UTC(), Report: r})
}

func writeTOML(path string, doc tomlDocument) error {
	if doc.Report == nil {
		return fmt.Errorf("%w: no report", ErrIncompleteResult)
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp report file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming report file: %w", err)
	}
	return nil
}

// ReadTOML loads a report written by WriteTOML or TOMLSink.
func ReadTOML(path string) (*rank.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}
	var doc tomlDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing report file: %w", err)
	}
	if doc.Report == nil {
		return nil, fmt.Errorf("%w: %s has no [report] table", ErrIncompleteResult, path)
	}
	return doc.Report, nil
}

// TOMLSink writes each Result's report to Path.
type TOMLSink struct {
	Path string
}

// Write implements Sink.
func (s *TOMLSink) Write(_ context.Context, res Result) error {
	doc := tomlDocument{
		Input:       res.Input,
		GeneratedAt: res.FinishedAt.UTC(),
		Workers:     res.Workers,
		DurationNs:  int64(res.FinishedAt.Sub(res.StartedAt)),
		Report:      res.Report,
	}
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now().UTC()
	}
	return writeTOML(s.Path, doc)
}

// Close implements Sink.
func (s *TOMLSink) Close() error { return nil }
