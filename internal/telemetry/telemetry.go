// Package telemetry records the phases of a linkrank run as a JSONL event
// stream. Each line is one Event tagged with the run ID, so several runs can
// append to the same file and still be told apart.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Event kinds.
const (
	KindRunStart    = "run_start"
	KindGraphBuilt  = "graph_built"
	KindMetricStart = "metric_start"
	KindMetricDone  = "metric_done"
	KindRunDone     = "run_done"
	KindRunFailed   = "run_failed"
)

// Event is a single telemetry record.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Metric    string    `json:"metric,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter appends events to a JSONL file. It is safe for concurrent use. A
// nil *Emitter is a valid no-op emitter.
type Emitter struct {
	runID string
	now   func() time.Time

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewEmitter opens path for appending, creating it if needed. Every event
// written through Record carries runID.
func NewEmitter(path, runID string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		runID: runID,
		now:   time.Now,
		file:  f,
		enc:   json.NewEncoder(f),
	}, nil
}

// RunID returns the run ID the emitter stamps on events, or "" for nil.
func (e *Emitter) RunID() string {
	if e == nil {
		return ""
	}
	return e.runID
}

// Emit writes evt as one line. Missing timestamp and run ID are filled in.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if evt.RunID == "" {
		evt.RunID = e.runID
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Record emits an event of kind with optional metric name and payload.
func (e *Emitter) Record(kind, metric string, data any) error {
	return e.Emit(Event{Kind: kind, Metric: metric, Data: data})
}

// Close closes the underlying file.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// ParseLine decodes one JSONL line. Data decodes to map[string]any when the
// payload was an object.
func ParseLine(line []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(line, &evt); err != nil {
		return Event{}, fmt.Errorf("telemetry: decode event: %w", err)
	}
	return evt, nil
}

// ReadEvents decodes every non-empty line of r. It stops at the first
// malformed line and reports its 1-based line number.
func ReadEvents(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		evt, err := ParseLine(sc.Bytes())
		if err != nil {
			return events, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, evt)
	}
	if err := sc.Err(); err != nil {
		return events, fmt.Errorf("telemetry: read: %w", err)
	}
	return events, nil
}
