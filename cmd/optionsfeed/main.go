package main

import (
	"os"

	"github.com/DevMandalia/direction-sky-ingest/cmd/optionsfeed/commands"
)

// main is the entry point for the optionsfeed CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
