// Package telemetry defines the flat per-run record written after every
// analysis and the sinks that persist it.
//
// The CSV sink keeps the append-only file format of earlier releases: a
// fixed set of leading columns, extra keys appended in row order, and a
// rotation to <name>.bak whenever the header has to change. The SQLite and
// PostgreSQL sinks live in sqlitesink and pgsink.
package telemetry
