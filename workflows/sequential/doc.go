// Package sequential is the linear baseline engine: Reader, Summarizer,
// Critic and Integrator run once each, in that order, over a keyword-sliced
// view of the document. It has no routing, translation or scoring and
// reports through the same analysis.Result as the graph engine.
package sequential
