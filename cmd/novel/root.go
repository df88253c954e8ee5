// Package main provides the entry point for the novel CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the harvester.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "novel",
		Short: "Harvester for serialized web novels",
		Long: `novel walks a chain of serialized chapter pages, starting from a given
chapter URL and following each page's next-chapter link until the chain ends.

Harvested chapters are appended to a single UTF-8 text file. Request pacing
adapts to how fast the site responds, and every run's summary is stored in
a local history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
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
