package main

import (
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Each call returns fresh commands with
// their own flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spacegen",
		Short: "Entry point generator and dev host for space-go guests",
		Long: `spacegen - build and exercise space-go guest modules.

Generate //go:wasmexport wrappers for functions marked //space:export,
print the JSON Schemas of the host call envelopes, or run an export of a
compiled module against the reference HTTP host.`,
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCmd(), newSchemaCmd(), newRunCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
