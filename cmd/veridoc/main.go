package main

import (
	"os"

	"github.com/veridoc-labs/veridoc/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
