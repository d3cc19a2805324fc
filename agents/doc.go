// Package agents holds the prompt templates of the analysis stages and thin
// helpers that render a template and send it through a [Completer].
//
// Each agent is a single prompt; none keeps state between calls.
package agents
