// Package main is the entry point for the tracksync CLI.
package main

import (
	"os"

	"github.com/tracksync/tracksync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
