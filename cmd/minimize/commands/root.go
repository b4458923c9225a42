// Package commands provides CLI command implementations for minimize.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/shrinklab/minimize/pkg/version"
)

var (
	configPath string
	verbose    bool
)

// NewRootCommand builds the root cobra command and attaches every subcommand.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "minimize",
		Short:   "Automatically reduce a project to the minimal form that still reproduces an issue",
		Version: version.Version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a minimize config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(NewRunCommand())
	root.AddCommand(NewReportCommand())
	root.AddCommand(NewMCPCommand())

	return root
}
