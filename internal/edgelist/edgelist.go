// Package edgelist reads delimited hyperlink edge lists (one directed edge per
// row, header first) into ordered source/target name pairs.
package edgelist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Default column names in the SNAP Reddit hyperlink dataset.
const (
	DefaultSourceColumn = "SOURCE_SUBREDDIT"
	DefaultTargetColumn = "TARGET_SUBREDDIT"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("required column not in header")

// ErrEmptyField is returned when a row has an empty source or target name.
var ErrEmptyField = errors.New("empty node name")

// ErrShortRow is returned when a row has fewer fields than the required columns need.
var ErrShortRow = errors.New("row too short")

// InputError reports malformed or unreadable input. Line is the 1-based line
// number of the offending row, or 0 when the failure is not tied to a row.
type InputError struct {
	Path string
	Line int
	Err  error
}

func (e *InputError) Error() string {
	var b strings.Builder
	b.WriteString("input")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *InputError) Unwrap() error { return e.Err }

// Edge is one directed hyperlink, from Source to Target.
type Edge struct {
	Source string
	Target string
}

// Options controls how an edge list is parsed.
type Options struct {
	SourceColumn string // header name of the source column
	TargetColumn string // header name of the target column
	Delimiter    rune   // field separator; tab when zero
}

// DefaultOptions returns options matching the Reddit hyperlink TSV files.
func DefaultOptions() Options {
	return Options{
		SourceColumn: DefaultSourceColumn,
		TargetColumn: DefaultTargetColumn,
		Delimiter:    '\t',
	}
}

func (o Options) withDefaults() Options {
	if o.SourceColumn == "" {
		o.SourceColumn = DefaultSourceColumn
	}
	if o.TargetColumn == "" {
		o.TargetColumn = DefaultTargetColumn
	}
	if o.Delimiter == 0 {
		o.Delimiter = '\t'
	}
	return o
}

// ReadFile opens path and parses it with Read. Any failure is returned as an
// *InputError carrying the path.
func ReadFile(path string, opts Options) ([]Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	edges, err := Read(f, opts)
	if err != nil {
		var ie *InputError
		if errors.As(err, &ie) {
			ie.Path = path
			return nil, ie
		}
		return nil, &InputError{Path: path, Err: err}
	}
	return edges, nil
}

// Read parses a header row followed by edge rows. Columns other than the
// source and target columns are ignored. Rows are returned in input order so
// node interning downstream stays deterministic. Empty input, or a header
// with no rows, yields an empty, non-nil slice.
//
// Fields are split on the delimiter only. Quotes carry no meaning, so a stray
// quote in POST_PROPERTIES cannot join rows together. Blank lines are skipped
// and a trailing carriage return is dropped.
func Read(r io.Reader, opts Options) ([]Edge, error) {
	opts = opts.withDefaults()
	if !utf8.ValidRune(opts.Delimiter) || opts.Delimiter == '\n' || opts.Delimiter == '\r' {
		return nil, &InputError{Err: fmt.Errorf("invalid delimiter %q", opts.Delimiter)}
	}
	delim := string(opts.Delimiter)

	br := bufio.NewReaderSize(r, 64*1024)
	edges := make([]Edge, 0, 1024)
	var (
		haveHeader     bool
		srcIdx, dstIdx int
		minFields      int
	)
	for line := 1; ; line++ {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, &InputError{Line: line, Err: readErr}
		}
		if text := strings.TrimRight(raw, "\r\n"); strings.TrimSpace(text) != "" {
			fields := strings.Split(text, delim)
			if !haveHeader {
				var err error
				if srcIdx, dstIdx, err = locateColumns(fields, opts); err != nil {
					return nil, &InputError{Line: line, Err: err}
				}
				minFields = max(srcIdx, dstIdx) + 1
				haveHeader = true
			} else {
				e, err := parseRow(fields, srcIdx, dstIdx, minFields)
				if err != nil {
					return nil, &InputError{Line: line, Err: err}
				}
				edges = append(edges, e)
			}
		}
		if readErr != nil {
			return edges, nil
		}
	}
}

func parseRow(fields []string, srcIdx, dstIdx, minFields int) (Edge, error) {
	if len(fields) < minFields {
		return Edge{}, fmt.Errorf("%w: %d fields, need %d", ErrShortRow, len(fields), minFields)
	}
	src := strings.TrimSpace(fields[srcIdx])
	dst := strings.TrimSpace(fields[dstIdx])
	if src == "" || dst == "" {
		return Edge{}, ErrEmptyField
	}
	return Edge{Source: src, Target: dst}, nil
}

// locateColumns finds the source and target column indexes in the header.
func locateColumns(header []string, opts Options) (int, int, error) {
	srcIdx, dstIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case opts.SourceColumn:
			if srcIdx < 0 {
				srcIdx = i
			}
		case opts.TargetColumn:
			if dstIdx < 0 {
				dstIdx = i
			}
		}
	}
	if srcIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, opts.SourceColumn)
	}
	if dstIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, opts.TargetColumn)
	}
	return srcIdx, dstIdx, nil
}
