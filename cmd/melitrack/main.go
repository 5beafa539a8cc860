// Package main is the entry point for the melitrack server.
package main

import (
	"os"

	"github.com/facuhernandez/melitrack/cmd/melitrack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
