// cmd/review50/main.go
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/cs50/review50/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
