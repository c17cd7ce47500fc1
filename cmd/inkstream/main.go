// Package main is the entry point for the inkstream CLI.
//
// Usage:
//
//	inkstream [flags] <command> [subcommand] [args]
//
// Commands:
//
//	generate   - Stream a new document from the generation backend
//	regen      - Regenerate one section of an existing document
//	doc        - Fetch, render and save persisted documents
//	snippets   - Search, resolve and pin evidence snippets
//	drafts     - Inspect the local draft cache
//	config     - Configuration management (contexts)
package main

import (
	"fmt"
	"os"

	"github.com/inkstream/inkstream/go/cmd/inkstream/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
