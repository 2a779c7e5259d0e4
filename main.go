// Package main provides the entry point for the func-align tool.
package main

import (
	"os"

	"func-align/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
