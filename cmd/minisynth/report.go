package main

import (
	"os"

	"github.com/spf13/cobra"

	"minisynth/internal/diag"
	"minisynth/internal/diagfmt"
	"minisynth/internal/source"
)

// printDiagnostics writes bag to stderr. Warnings are dropped under --quiet.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if quiet && !bag.HasErrors() {
		return
	}
	bag.Sort()
	bag.Dedup()
	opts := diagfmt.PrettyOpts{
		Color:     useColor(cmd, os.Stderr),
		Context:   0,
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
	}
	if err := diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, opts); err != nil {
		cmd.PrintErrln("error:", err)
	}
}

func maxDiagnostics(cmd *cobra.Command) int {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil || n <= 0 {
		return 100
	}
	return n
}
