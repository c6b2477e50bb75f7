package main

import (
	"os"

	"github.com/agentflare-ai/xsdcheck/cmd/xsdcheck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
