// Package eval compares the workflow engines on a JSONL dev set. Every
// example is preprocessed once, handed to each engine, and scored by the
// unigram F1 of the engine's summary against the preprocessed text.
package eval
