// Package main provides the entry point for the minimize CLI.
package main

import (
	"fmt"
	"os"

	"github.com/shrinklab/minimize/cmd/minimize/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
