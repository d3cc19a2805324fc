// Package sqlitesink stores telemetry rows in a local SQLite database. The
// full row is kept as JSON next to a few scalar columns used for querying.
package sqlitesink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
CREATE TABLE IF NOT EXISTS telemetry_runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id          TEXT NOT NULL DEFAULT '',
	engine          TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	input_chars     INTEGER,
	latency_s       REAL,
	judge_aggregate REAL,
	payload         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_telemetry_runs_engine ON telemetry_runs (engine, id);
`

// Run is one stored row.
type Run struct {
	ID             int64           `json:"id"`
	RunID          string          `json:"run_id"`
	Engine         string          `json:"engine"`
	CreatedAt      string          `json:"created_at"`
	InputChars     *int64          `json:"input_chars,omitempty"`
	LatencyS       *float64        `json:"latency_s,omitempty"`
	JudgeAggregate *float64        `json:"judge_aggregate,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

// Sink implements telemetry.Sink over SQLite.
type Sink struct {
	db *sql.DB
}

var _ telemetry.Sink = (*Sink)(nil)

// Open creates the database file and its schema if needed.
func Open(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlitesink: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitesink: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitesink: pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitesink: migrate: %w", err)
	}

	return &Sink{db: db}, nil
}

func (s *Sink) Write(ctx context.Context, row *telemetry.Row) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("sqlitesink: encode row: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO telemetry_runs (run_id, engine, input_chars, latency_s, judge_aggregate, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row.String("run_id"),
		row.String("engine"),
		nullableNumber(row, "input_chars"),
		nullableNumber(row, "latency_s"),
		nullableNumber(row, "judge_aggregate"),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("sqlitesink: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A non-empty engine filters
// by engine id.
func (s *Sink) Recent(ctx context.Context, engine string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, engine, created_at, input_chars, latency_s, judge_aggregate, payload
		 FROM telemetry_runs
		 WHERE (? = '' OR engine = ?)
		 ORDER BY id DESC
		 LIMIT ?`,
		engine, engine, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitesink: recent: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var inputChars sql.NullInt64
		var latency, aggregate sql.NullFloat64
		var payload string
		if err := rows.Scan(&run.ID, &run.RunID, &run.Engine, &run.CreatedAt, &inputChars, &latency, &aggregate, &payload); err != nil {
			return nil, fmt.Errorf("sqlitesink: scan: %w", err)
		}
		if inputChars.Valid {
			run.InputChars = &inputChars.Int64
		}
		if latency.Valid {
			run.LatencyS = &latency.Float64
		}
		if aggregate.Valid {
			run.JudgeAggregate = &aggregate.Float64
		}
		run.Payload = json.RawMessage(payload)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitesink: iterate rows: %w", err)
	}
	return runs, nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}

func nullableNumber(row *telemetry.Row, key string) any {
	value, ok := row.Float(key)
	if !ok {
		return nil
	}
	return value
}
