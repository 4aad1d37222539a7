// Package main is the entry point for the carbontrace CLI.
package main

import (
	"os"

	"carbontrace/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
