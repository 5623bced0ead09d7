// Package main is the entry point for the aligncache CLI.
//
// Usage:
//
//	aligncache [flags] <command> [args]
//
// Commands:
//
//	build       - Build (or reuse) an aligner dataset cache
//	inspect     - Show the size of a cache and decode single samples
//	rejections  - List the utterances rejected by the latest build
//	version     - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/aligner/cmd/aligncache/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
