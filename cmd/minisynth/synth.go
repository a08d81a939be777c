package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"minisynth/internal/buildpipeline"
	"minisynth/internal/driver"
	"minisynth/internal/export"
	"minisynth/internal/observ"
	"minisynth/internal/project"
)

var synthCmd = &cobra.Command{
	Use:   "synth [flags] file [target...]",
	Short: "Synthesize functions or modules into netlists",
	Long: `Synth elaborates each target, such as "Counter" or "fifo#(4)", into a netlist,
runs the selected garbage collection passes and writes the result.
Targets default to [synth] targets of minisynth.toml.`,
	Args:        cobra.MinimumNArgs(1),
	RunE:        runSynth,
	Annotations: map[string]string{usesProject: ""},
}

func init() {
	addSynthFlags(synthCmd)
	synthCmd.Flags().String("format", "text", "netlist format (text|json|elk)")
	synthCmd.Flags().StringP("out", "o", "", "output file, or directory when there are several targets")
}

func runSynth(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := loadConfig(cmd, path)
	if err != nil {
		return err
	}
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	outPath, _ := cmd.Flags().GetString("out")

	targets := args[1:]
	if len(targets) == 0 {
		targets = cfg.Synth.Targets
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets: name them after the file or set [synth] targets in %s", project.ConfigFile)
	}

	timer := observ.NewTimer()
	req := newRequest(cmd, cfg, timer)
	req.Path = path
	req.Targets = targets

	showUI, err := wantUI(cmd, len(targets))
	if err != nil {
		return err
	}
	var res *driver.Result
	if showUI {
		err = runWithUI("synth "+filepath.Base(path), targets, func(sink buildpipeline.ProgressSink) error {
			r := *req
			r.Progress = sink
			var werr error
			res, werr = driver.Synthesize(cmd.Context(), &r)
			return werr
		})
	} else {
		res, err = driver.Synthesize(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	printDiagnostics(cmd, res.Bag, res.FileSet)
	for _, tr := range res.Targets {
		printDiagnostics(cmd, tr.Bag, tr.FileSet)
	}
	if err := writeNetlists(cmd, res, format, outPath, timer); err != nil {
		return err
	}
	printTimings(cmd, timer)
	if res.HasErrors() {
		return errReported
	}
	return nil
}

// writeNetlists exports every successful target. Several targets are
// separated by a blank line on stdout or written as one file each into the
// --out directory.
func writeNetlists(cmd *cobra.Command, res *driver.Result, format export.Format, outPath string, timer *observ.Timer) error {
	var ok []*driver.TargetResult
	for _, tr := range res.Targets {
		if !tr.Failed() {
			ok = append(ok, tr)
		}
	}
	multi := len(res.Targets) > 1
	if outPath != "" && multi {
		if err := os.MkdirAll(outPath, 0o755); err != nil {
			return err
		}
	}
	for i, tr := range ok {
		if outPath == "" {
			w := cmd.OutOrStdout()
			if multi && i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if err := driver.Export(cmd.Context(), w, tr, format, timer); err != nil {
				return err
			}
			continue
		}
		file := outPath
		if multi {
			file = filepath.Join(outPath, outputName(tr.Name, format))
		}
		if err := writeFile(file, func(w io.Writer) error {
			return driver.Export(cmd.Context(), w, tr, format, timer)
		}); err != nil {
			return err
		}
		if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
			cmd.PrintErrf("wrote %s\n", file)
		}
	}
	return nil
}

// outputName turns an instance name such as "fifo#(4, Bit#(8))" into a file name.
func outputName(name string, format export.Format) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		case r == ' ':
		default:
			sb.WriteByte('_')
		}
	}
	ext := ".txt"
	if format != export.FormatText {
		ext = ".json"
	}
	return strings.Trim(sb.String(), "_") + ext
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printTimings(cmd *cobra.Command, timer *observ.Timer) {
	show, _ := cmd.Root().PersistentFlags().GetBool("timings")
	if !show {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
}
