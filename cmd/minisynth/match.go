package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"minisynth/internal/buildpipeline"
	"minisynth/internal/driver"
	"minisynth/internal/observ"
)

var matchCmd = &cobra.Command{
	Use:   "match [flags] file target [file2] target2",
	Short: "Check two synthesized designs for structural equivalence",
	Long: `Match synthesizes both targets, collects them, and reports whether the two
netlists are isomorphic. It exits with status 1 when they differ.`,
	Args:        cobra.RangeArgs(3, 4),
	RunE:        runMatch,
	Annotations: map[string]string{usesProject: ""},
}

func init() {
	addSynthFlags(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	left := driver.Side{Path: args[0], Target: args[1]}
	right := driver.Side{Path: args[0], Target: args[2]}
	if len(args) == 4 {
		right = driver.Side{Path: args[2], Target: args[3]}
	}
	cfg, err := loadConfig(cmd, left.Path)
	if err != nil {
		return err
	}
	timer := observ.NewTimer()
	req := &driver.MatchRequest{Left: left, Right: right, Base: *newRequest(cmd, cfg, timer)}

	showUI, err := wantUI(cmd, 2)
	if err != nil {
		return err
	}
	var res *driver.MatchResult
	if showUI {
		err = runWithUI("match", []string{left.Target, right.Target}, func(sink buildpipeline.ProgressSink) error {
			r := *req
			r.Base.Progress = sink
			var werr error
			res, werr = driver.Match(cmd.Context(), &r)
			return werr
		})
	} else {
		res, err = driver.Match(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	for _, r := range []*driver.Result{res.Left, res.Right} {
		printDiagnostics(cmd, r.Bag, r.FileSet)
		for _, tr := range r.Targets {
			printDiagnostics(cmd, tr.Bag, tr.FileSet)
		}
	}
	printTimings(cmd, timer)
	if res.HasErrors() {
		return errReported
	}
	l, r := res.Left.Targets[0], res.Right.Targets[0]
	if !res.Equal {
		fmt.Fprintf(cmd.OutOrStdout(), "%s and %s differ\n", l.Name, r.Name)
		return errReported
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s and %s match\n", l.Name, r.Name)
	return nil
}
