// Package slogobs provides an observability.Provider implementation backed by
// log/slog. Spans and metrics become structured log records; output format
// (text or json) and level come from options or from the MAO_LOG_FORMAT and
// MAO_LOG_LEVEL environment variables.
package slogobs
