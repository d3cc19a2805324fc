// Package analysis is the graph workflow that turns document text into
// notes, a summary, a critique and a meta summary.
//
// The graph runs
//
//	retriever -> reader -> summarizer -> translator -> keyword -> critic_node
//
// and then routes on the critic score: back to summarizer for a bounded
// number of rework passes, to quality and then judge for long summaries, or
// straight to judge for short ones. aggregator and integrator close the run.
//
// Every model call runs under the timeout guard. A stage that times out
// writes the guard's sentinel, which later stages receive as ordinary
// input; a stage whose call fails writes FailureText. Neither stops the run,
// and both are listed on the Result.
package analysis
