// Package main provides the entry point for the proxyharvest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for proxyharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxyharvest",
		Short: "Harvest proxy endpoints published in GitHub repositories",
		Long: `Proxyharvest collects proxy endpoints (host:port pairs) from GitHub repositories.
It walks each repository's default branch, downloads text, JSON, and XML files,
and merges every endpoint it finds into one deduplicated, sorted list.

Repositories come from positional arguments, a list file (repositories.txt by
default), or the .proxyharvest configuration file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
