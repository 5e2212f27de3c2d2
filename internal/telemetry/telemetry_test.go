package telemetry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestEmitter(t *testing.T, runID string) (*Emitter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	em, err := NewEmitter(path, runID)
	if err != nil {
		t.Fatalf("NewEmitter(%q): %v", path, err)
	}
	return em, path
}

func readFile(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	events, err := ReadEvents(f)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	return events
}

func TestNewEmitter_ErrorOnBadPath(t *testing.T) {
	t.Parallel()
	_, err := NewEmitter("/nonexistent/dir/events.jsonl", "r")
	if err == nil {
		t.Fatal("expected error for bad path, got nil")
	}
	if !strings.Contains(err.Error(), "telemetry: open") {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func TestRecord_StampsRunAndTime(t *testing.T) {
	t.Parallel()
	em, path := newTestEmitter(t, "run-1")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	em.now = func() time.Time { return fixed }

	if err := em.Record(KindRunStart, "", map[string]any{"input": "links.tsv"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := em.Record(KindMetricDone, "out_closeness", map[string]any{"elapsed_ms": 12}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// An explicit run ID and timestamp are kept.
	other := fixed.Add(time.Hour)
	if err := em.Emit(Event{Timestamp: other, Kind: KindRunDone, RunID: "run-2"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := readFile(t, path)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	tests := []struct {
		kind, run, metric string
		ts                time.Time
	}{
		{KindRunStart, "run-1", "", fixed},
		{KindMetricDone, "run-1", "out_closeness", fixed},
		{KindRunDone, "run-2", "", other},
	}
	for i, tt := range tests {
		got := events[i]
		if got.Kind != tt.kind || got.RunID != tt.run || got.Metric != tt.metric || !got.Timestamp.Equal(tt.ts) {
			t.Errorf("event %d = %+v, want kind=%s run=%s metric=%s ts=%s", i, got, tt.kind, tt.run, tt.metric, tt.ts)
		}
	}

	data, ok := events[1].Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want map[string]any", events[1].Data)
	}
	if data["elapsed_ms"] != float64(12) {
		t.Errorf("elapsed_ms = %v, want 12", data["elapsed_ms"])
	}
}

func TestEmit_ConcurrentSafety(t *testing.T) {
	t.Parallel()
	em, path := newTestEmitter(t, "concurrent")

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func(idx int) {
			defer wg.Done()
			if err := em.Record(KindMetricStart, "in_degree", map[string]int{"idx": idx}); err != nil {
				t.Errorf("Record from goroutine %d: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := len(readFile(t, path)); got != n {
		t.Fatalf("expected %d events, got %d", n, got)
	}
}

func TestNilEmitter_NoOp(t *testing.T) {
	t.Parallel()
	var em *Emitter

	if err := em.Record(KindRunStart, "", nil); err != nil {
		t.Errorf("nil Record: %v", err)
	}
	if err := em.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
	if em.RunID() != "" {
		t.Errorf("nil RunID = %q, want empty", em.RunID())
	}
}

func TestEmit_AppendsToExistingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "append.jsonl")

	for _, run := range []string{"a", "b"} {
		em, err := NewEmitter(path, run)
		if err != nil {
			t.Fatalf("NewEmitter: %v", err)
		}
		if err := em.Record(KindRunDone, "", nil); err != nil {
			t.Fatalf("Record: %v", err)
		}
		em.Close()
	}

	events := readFile(t, path)
	if len(events) != 2 || events[0].RunID != "a" || events[1].RunID != "b" {
		t.Fatalf("events = %+v, want runs a then b", events)
	}
}

func TestReadEvents_MalformedLine(t *testing.T) {
	t.Parallel()
	in := `{"ts":"2026-01-01T00:00:00Z","kind":"run_start"}

not json
{"ts":"2026-01-01T00:00:01Z","kind":"run_done"}
`
	events, err := ReadEvents(strings.NewReader(in))
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error %q does not name line 3", err)
	}
	var syntax *json.SyntaxError
	if !errors.As(err, &syntax) {
		t.Errorf("error %v does not wrap *json.SyntaxError", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events before the bad line, want 1", len(events))
	}
}

func TestEventKinds_AreDistinct(t *testing.T) {
	t.Parallel()
	kinds := []string{
		KindRunStart,
		KindGraphBuilt,
		KindMetricStart,
		KindMetricDone,
		KindRunDone,
		KindRunFailed,
	}
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		if k == "" {
			t.Errorf("empty kind constant found")
		}
		if seen[k] {
			t.Errorf("duplicate kind: %q", k)
		}
		seen[k] = true
	}
}

func TestEvent_OmitsEmptyFields(t *testing.T) {
	t.Parallel()
	evt := Event{
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Kind:      KindRunStart,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, field := range []string{`"run"`, `"metric"`, `"data"`} {
		if strings.Contains(s, field) {
			t.Errorf("expected %s to be omitted, got: %s", field, s)
		}
	}
}
