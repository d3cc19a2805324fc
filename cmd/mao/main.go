// mao analyses scientific documents with a team of language-model agents.
//
// Usage:
//
//	mao analyze paper.txt [more sources...] [--engine graph|sequential] [--json] [--dot graph.dot]
//	mao graph [--format dot|mermaid]
//	mao sections paper.txt
//	mao eval [--dev dev-set/dev.jsonl] [--concurrency 2]
//	mao serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
