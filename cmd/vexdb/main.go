// Package main provides the entry point for the vexdb server.
package main

import (
	"os"

	"github.com/vexhq/vexdb/cmd/vexdb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
