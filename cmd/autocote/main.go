// Package main is the entry point for autocote.
package main

import (
	"os"

	"github.com/tmarchal/autocote/cmd/autocote/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
