package pgsink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
)

// defaultTableName is the PostgreSQL table used when no custom name is provided.
const defaultTableName = "mao_telemetry"

// Querier abstracts the pgx query methods needed by Sink. Both
// *pgxpool.Pool and pgx.Tx satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Run is one stored telemetry row.
type Run struct {
	RunID     string          `json:"run_id"`
	Engine    string          `json:"engine"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Sink implements telemetry.Sink with PostgreSQL persistence. Concurrency is
// handled by the underlying pool.
type Sink struct {
	db        Querier
	tableName string
	close     func()
}

var _ telemetry.Sink = (*Sink)(nil)

// Option configures optional Sink behavior.
type Option func(*Sink)

// WithTableName overrides the default table name ("mao_telemetry"). The
// name is sanitized via pgx.Identifier since it is interpolated into queries.
func WithTableName(name string) Option {
	return func(s *Sink) {
		s.tableName = pgx.Identifier{name}.Sanitize()
	}
}

// New wraps an existing pool or transaction. Close does not close db.
func New(db Querier, opts ...Option) *Sink {
	sink := &Sink{db: db, tableName: defaultTableName}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

// Connect opens a pool for dsn and ensures the schema exists. Close releases
// the pool.
func Connect(ctx context.Context, dsn string, opts ...Option) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgsink: connect: %w", err)
	}
	sink := New(pool, opts...)
	sink.close = pool.Close

	if err := sink.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

// Write inserts one row. The whole row is stored as JSONB.
func (s *Sink) Write(ctx context.Context, row *telemetry.Row) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("pgsink: encode row: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, engine, payload) VALUES ($1, $2, $3)`, s.tableName)
	if _, err := s.db.Exec(ctx, query, row.String("run_id"), row.String("engine"), payload); err != nil {
		return fmt.Errorf("pgsink: insert: %w", err)
	}
	return nil
}

// Count returns the number of stored runs.
func (s *Sink) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.tableName)

	var count int
	if err := s.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgsink: count: %w", err)
	}
	return count, nil
}

// Recent returns the last n runs, newest first. Returns an empty slice when
// n is zero or negative.
func (s *Sink) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return []Run{}, nil
	}

	query := fmt.Sprintf(`SELECT run_id, engine, payload, created_at
		FROM %s ORDER BY seq DESC LIMIT $1`, s.tableName)

	rows, err := s.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("pgsink: recent: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var payload []byte
		if err := rows.Scan(&run.RunID, &run.Engine, &payload, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgsink: scan row: %w", err)
		}
		run.Payload = json.RawMessage(payload)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgsink: iterate rows: %w", err)
	}
	return runs, nil
}

func (s *Sink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
