// Package main provides the entry point for the contentkit CLI.
package main

import (
	"os"

	"github.com/rushteam/contentkit/cmd/contentkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
