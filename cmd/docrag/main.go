// Command docrag is the entry point for the document QA pipeline.
// It provides CLI commands (via Cobra) for reindexing the document
// collection, serving the query API, and running the standalone document
// storage service.
package main

import (
	"fmt"
	"os"

	"github.com/patrickverol/docrag-go/cmd/docrag/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
