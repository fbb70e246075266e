package main

import (
	"os"

	"github.com/tallybot/tally/cmd/tally/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
