package main

import (
	"os"

	"github.com/tarslab/boxpush/cmd/boxpush/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
