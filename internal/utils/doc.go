// Package utils provides shared low-level helpers: JSON-over-HTTP calls with
// span events, plain GET downloads, rune-aware string helpers, decimal
// rounding and a small elapsed-time timer.
package utils
