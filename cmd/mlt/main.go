// Package main is the entry point for the mlt CLI.
package main

import (
	"github.com/facuhernandez/melitrack/cmd/mlt/cmd"
)

func main() {
	cmd.Execute()
}
