package pgsink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/MerlinChiodo/multi-agent-orchestration/telemetry"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestNew_Defaults(t *testing.T) {
	sink := New(newMock(t))
	if sink.tableName != defaultTableName {
		t.Fatalf("expected default table name %q, got %q", defaultTableName, sink.tableName)
	}
}

func TestNew_WithTableName(t *testing.T) {
	sink := New(newMock(t), WithTableName("runs; DROP TABLE users"))

	expected := `"runs; DROP TABLE users"`
	if sink.tableName != expected {
		t.Fatalf("expected table name %q, got %q", expected, sink.tableName)
	}
}

func TestEnsureSchema(t *testing.T) {
	mock := newMock(t)
	sink := New(mock)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS mao_telemetry").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS "idx_mao_telemetry_engine_seq" ON mao_telemetry`).
		WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))

	if err := sink.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchema_TableError(t *testing.T) {
	mock := newMock(t)
	sink := New(mock)

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err := sink.EnsureSchema(context.Background())
	if err == nil || err.Error() != "pgsink: create table: permission denied" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWrite_InsertsPayload(t *testing.T) {
	mock := newMock(t)
	sink := New(mock)

	row := telemetry.NewRow(
		telemetry.Field{Key: "engine", Value: "langgraph"},
		telemetry.Field{Key: "input_chars", Value: 10},
		telemetry.Field{Key: "run_id", Value: "run-1"},
	)

	mock.ExpectExec("INSERT INTO mao_telemetry").
		WithArgs("run-1", "langgraph", []byte(`{"engine":"langgraph","input_chars":10,"run_id":"run-1"}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := sink.Write(context.Background(), row); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWrite_Error(t *testing.T) {
	mock := newMock(t)
	sink := New(mock)

	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("connection lost"))

	err := sink.Write(context.Background(), telemetry.NewRow())
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestCount(t *testing.T) {
	mock := newMock(t)
	sink := New(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM mao_telemetry`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(3))

	count, err := sink.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}

func TestRecent(t *testing.T) {
	mock := newMock(t)
	sink := New(mock)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT run_id, engine, payload, created_at").
		WithArgs(2).
		WillReturnRows(mock.NewRows([]string{"run_id", "engine", "payload", "created_at"}).
			AddRow("run-2", "langgraph", []byte(`{"latency_s":1.5}`), created).
			AddRow("run-1", "langchain", []byte(`{"latency_s":0.9}`), created.Add(-time.Minute)))

	runs, err := sink.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "run-2" || runs[1].Engine != "langchain" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if string(runs[0].Payload) != `{"latency_s":1.5}` {
		t.Fatalf("unexpected payload %s", runs[0].Payload)
	}
}

func TestRecent_NonPositive(t *testing.T) {
	sink := New(newMock(t))

	runs, err := sink.Recent(context.Background(), 0)
	if err != nil || len(runs) != 0 {
		t.Fatalf("Recent(0) = %v, %v", runs, err)
	}
}

func TestClose_DoesNotCloseInjectedPool(t *testing.T) {
	mock := newMock(t)
	sink := New(mock)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected calls: %v", err)
	}
}
