// Package pgsink stores telemetry rows in PostgreSQL through pgx. Each run
// is one row with the engine id, the run id and the full record as JSONB.
//
// EnsureSchema is a convenience for development; production deployments
// should manage the table with their migration tooling.
package pgsink
