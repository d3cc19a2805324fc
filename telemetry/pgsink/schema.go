package pgsink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// createTableSQL creates the telemetry table. seq gives a stable insertion
// order that does not depend on clock resolution.
const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    seq        BIGSERIAL NOT NULL,
    run_id     TEXT NOT NULL DEFAULT '',
    engine     TEXT NOT NULL DEFAULT '',
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createEngineSeqIndexSQL = `CREATE INDEX IF NOT EXISTS %s ON %s (engine, seq)`

// EnsureSchema creates the table and its index if they do not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, fmt.Sprintf(createTableSQL, s.tableName)); err != nil {
		return fmt.Errorf("pgsink: create table: %w", err)
	}
	if _, err := s.db.Exec(ctx, fmt.Sprintf(createEngineSeqIndexSQL, s.indexName(), s.tableName)); err != nil {
		return fmt.Errorf("pgsink: create engine_seq index: %w", err)
	}
	return nil
}

func (s *Sink) indexName() string {
	return pgx.Identifier{"idx_" + strings.Trim(s.tableName, `"`) + "_engine_seq"}.Sanitize()
}
