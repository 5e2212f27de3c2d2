package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/linkrank/internal/centrality"
)

// ErrRunNotFound is returned by LoadScores for an unknown run ID.
var ErrRunNotFound = errors.New("export: run not found")

// schema is executed on every open; IF NOT EXISTS keeps it idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    input       TEXT NOT NULL DEFAULT '',
    nodes       INTEGER NOT NULL,
    edges       INTEGER NOT NULL,
    workers     INTEGER NOT NULL DEFAULT 0,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
    run_id        TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    id            INTEGER NOT NULL,
    name          TEXT NOT NULL,
    out_degree    REAL NOT NULL,
    in_degree     REAL NOT NULL,
    out_closeness REAL NOT NULL,
    in_closeness  REAL NOT NULL,
    PRIMARY KEY (run_id, id)
);

CREATE INDEX IF NOT EXISTS nodes_name ON nodes(name);
`

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteSink stores every node's scores for each run in a SQLite database
// in WAL mode.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteSink(ctx context.Context, dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("export: open database: %w", err)
	}

	// One writer; pooled connections would each need their own PRAGMAs.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("export: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("export: create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Write stores res in a single transaction. Writing the same run ID again
// replaces the earlier rows.
func (s *SQLiteSink) Write(ctx context.Context, res Result) error {
	if res.Graph == nil || res.Table == nil {
		return fmt.Errorf("%w: graph and score table required", ErrIncompleteResult)
	}
	if res.RunID == "" {
		return fmt.Errorf("%w: empty run id", ErrIncompleteResult)
	}
	g, t := res.Graph, res.Table
	if t.Len() != g.Len() {
		return fmt.Errorf("%w: table covers %d of %d nodes", ErrIncompleteResult, t.Len(), g.Len())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", res.RunID); err != nil {
		return fmt.Errorf("export: clear run %s: %w", res.RunID, err)
	}

	const insertRun = `
		INSERT INTO runs (run_id, input, nodes, edges, workers, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		res.RunID, res.Input, g.Len(), g.EdgeCount(), res.Workers,
		res.StartedAt.UTC().Format(timeLayout), res.FinishedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("export: insert run %s: %w", res.RunID, err)
	}

	const insertNode = `
		INSERT INTO nodes (run_id, id, name, out_degree, in_degree, out_closeness, in_closeness)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, insertNode)
	if err != nil {
		return fmt.Errorf("export: prepare node insert: %w", err)
	}
	defer stmt.Close()

	for i, name := range g.Names() {
		if _, err := stmt.ExecContext(ctx, res.RunID, i, name,
			t.OutDegree[i], t.InDegree[i], t.OutCloseness[i], t.InCloseness[i],
		); err != nil {
			return fmt.Errorf("export: insert node %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit run %s: %w", res.RunID, err)
	}
	return nil
}

// RunInfo is the stored summary row of one run.
type RunInfo struct {
	RunID      string
	Input      string
	Nodes      int
	Edges      int
	Workers    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Runs lists stored runs, most recent first.
func (s *SQLiteSink) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, input, nodes, edges, workers, started_at, finished_at
		FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("export: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var r RunInfo
		var started, finished string
		if err := rows.Scan(&r.RunID, &r.Input, &r.Nodes, &r.Edges, &r.Workers, &started, &finished); err != nil {
			return nil, fmt.Errorf("export: scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("export: parse started_at of %s: %w", r.RunID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("export: parse finished_at of %s: %w", r.RunID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadScores reads back the node names and score table of runID, indexed by
// the NodeIDs the run used.
func (s *SQLiteSink) LoadScores(ctx context.Context, runID string) ([]string, *centrality.ScoreTable, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT nodes FROM runs WHERE run_id = ?", runID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("export: load run %s: %w", runID, err)
	}

	names := make([]string, n)
	t := &centrality.ScoreTable{
		OutDegree:    make([]float64, n),
		InDegree:     make([]float64, n),
		OutCloseness: make([]float64, n),
		InCloseness:  make([]float64, n),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, out_degree, in_degree, out_closeness, in_closeness
		FROM nodes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("export: load nodes of %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id              int
			name            string
			od, ind, oc, ic float64
		)
		if err := rows.Scan(&id, &name, &od, &ind, &oc, &ic); err != nil {
			return nil, nil, fmt.Errorf("export: scan node: %w", err)
		}
		if id < 0 || id >= n {
			return nil, nil, fmt.Errorf("export: run %s has node id %d outside [0, %d)", runID, id, n)
		}
		names[id] = name
		t.OutDegree[id], t.InDegree[id], t.OutCloseness[id], t.InCloseness[id] = od, ind, oc, ic
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return names, t, nil
}

// Close implements Sink.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
