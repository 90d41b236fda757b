// Package main provides the FViewer CLI.
package main

import (
	"os"

	"github.com/kud1/file-viewer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
