// Package main is the entry point for gigctl, a command line client for the marketplace
// that keeps its session on disk between invocations.
package main

import (
	"log"
	"os"

	"gigmarket/cmd/gigctl/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		log.SetFlags(0)
		log.SetOutput(os.Stderr)
		log.Fatalf("Error: %v", err)
	}
}
