package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"minisynth/internal/diagfmt"
	"minisynth/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file",
	Short: "Parse a source file and print its outline",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	result, err := driver.Parse(args[0], maxDiagnostics(cmd))
	if err != nil {
		return err
	}
	printDiagnostics(cmd, result.Bag, result.FileSet)

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		err = diagfmt.FormatASTPretty(out, result.Builder, result.FileID, result.FileSet)
	case "json":
		err = diagfmt.FormatASTJSON(out, result.Builder, result.FileID, result.FileSet)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}
	if result.Bag.HasErrors() {
		return errReported
	}
	return nil
}
