package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"minisynth/internal/driver"
	"minisynth/internal/observ"
	"minisynth/internal/project"
)

// synthFlags are shared by synth and match.
func addSynthFlags(cmd *cobra.Command) {
	cmd.Flags().String("gc", "", "collection passes after elaboration (none|local|global|both)")
	cmd.Flags().Bool("no-cache", false, "do not read or write the synthesis cache")
	cmd.Flags().Int("jobs", 0, "targets elaborated concurrently (0 = GOMAXPROCS)")
}

// discovered is the project file read by setupRun for commands that take a
// source file.
var discovered *project.Config

// discoverConfig finds minisynth.toml above the source file.
func discoverConfig(file string) (*project.Config, error) {
	if discovered != nil {
		return discovered, nil
	}
	cfg, err := project.Discover(filepath.Dir(file))
	if err != nil {
		return nil, err
	}
	discovered = cfg
	return cfg, nil
}

// loadConfig returns the project configuration with flag overrides applied.
func loadConfig(cmd *cobra.Command, file string) (*project.Config, error) {
	cfg, err := discoverConfig(file)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("gc") {
		v, _ := flags.GetString("gc")
		if cfg.Synth.GC, err = project.ParseGC(v); err != nil {
			return nil, err
		}
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if root := cmd.Root().PersistentFlags(); root.Changed("max-diagnostics") || cfg.Synth.MaxDiagnostics <= 0 {
		cfg.Synth.MaxDiagnostics = maxDiagnostics(cmd)
	}
	return cfg, nil
}

// applyTraceConfig copies [trace] settings into trace flags the user left
// unset, so setupTracing sees them.
func applyTraceConfig(cmd *cobra.Command, cfg *project.Config) error {
	flags := cmd.Root().PersistentFlags()
	for name, value := range map[string]string{
		"trace-level": cfg.Trace.Level,
		"trace-mode":  cfg.Trace.Mode,
		"trace":       cfg.Trace.Output,
	} {
		if value == "" || flags.Changed(name) {
			continue
		}
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("%s: [trace] %s: %w", cfg.Path, strings.TrimPrefix(name, "trace-"), err)
		}
	}
	return nil
}

// newRequest builds a driver request from cfg and the command flags.
func newRequest(cmd *cobra.Command, cfg *project.Config, timer *observ.Timer) *driver.Request {
	jobs, _ := cmd.Flags().GetInt("jobs")
	req := &driver.Request{
		GC:             cfg.Synth.GC,
		Timer:          timer,
		MaxDiagnostics: cfg.Synth.MaxDiagnostics,
		MaxDepth:       cfg.Synth.MaxDepth,
		MaxIterations:  cfg.Synth.MaxIterations,
		Jobs:           jobs,
	}
	if cfg.Cache.Enabled {
		cache, err := driver.OpenDiskCache(cfg.CacheDir())
		if err != nil {
			cmd.PrintErrln("warning: cache disabled:", err)
		} else {
			req.Cache = cache
		}
	}
	return req
}
