package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"minisynth/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "minisynth",
	Short:         "Hardware description synthesizer",
	Long:          `minisynth elaborates modules and functions of a BSV-like description into netlists`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	flags.String("ui", "auto", "progress view for multi-target runs (auto|on|off)")

	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval")

	flags.String("cpu-profile", "", "write a CPU profile to file")
	flags.String("mem-profile", "", "write a heap profile to file on exit")
	flags.String("runtime-trace", "", "write a Go runtime execution trace to file")

	rootCmd.PersistentPreRunE = setupRun
}

// main runs the root command. Any error exits with status 1.
func main() {
	err := rootCmd.Execute()
	runFailed = err != nil
	runCleanup()
	if err != nil {
		if !errors.Is(err, errReported) {
			rootCmd.PrintErrln("error:", err)
		}
		os.Exit(1)
	}
}

// errReported marks failures whose diagnostics were already printed.
var errReported = errors.New("errors reported")

// runFailed is set before cleanup so the ring tracer can dump on failure.
var runFailed bool

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color for the given stream.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(f)
}
