// Package main is the entry point for the skywatchctl CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/skywatch/cmd/skywatchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
