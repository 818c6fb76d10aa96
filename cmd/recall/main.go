// Command recall is the Recall CLI entry point.
package main

import (
	"os"

	"github.com/custodia-labs/recall/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
