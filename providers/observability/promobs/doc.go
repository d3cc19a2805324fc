// Package promobs exports the orchestrator's counters and histograms to
// Prometheus. Logging and span records are delegated to another
// observability.Provider (normally slogobs); span durations are additionally
// recorded as a histogram labelled by span name.
package promobs
