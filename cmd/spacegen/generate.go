package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/space-operator/space-go/codegen"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Generate entry points for //space:export functions",
		Long: `Scan the Go package in dir (default: current directory) for functions
marked //space:export and write their //go:wasmexport wrappers to
space_exports.go in the same directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerate,
	}
	cmd.Flags().StringP("output", "o", codegen.OutputFile, "Output file name, relative to dir")
	cmd.Flags().Bool("stdout", false, "Print the generated source instead of writing it")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	output, _ := cmd.Flags().GetString("output")
	toStdout, _ := cmd.Flags().GetBool("stdout")

	pkg, sigs, err := codegen.ParseDir(dir)
	if err != nil {
		return err
	}
	src, err := codegen.Generate(pkg, sigs)
	if err != nil {
		return err
	}

	if toStdout {
		_, err := cmd.OutOrStdout().Write(src)
		return err
	}

	path := filepath.Join(dir, output)
	if err := os.WriteFile(path, src, 0o644); err != nil { //nolint:gosec // generated source is world-readable
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "spacegen: wrote %d exports to %s\n", len(sigs), path)
	return nil
}
