// Package project loads minisynth.toml.
package project

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"minisynth/internal/diag"
	"minisynth/internal/trace"
)

// GCMode selects the collection passes run after elaboration.
type GCMode uint8

const (
	GCNone GCMode = iota
	GCLocal
	GCGlobal
	GCBoth
)

func (m GCMode) String() string {
	switch m {
	case GCLocal:
		return "local"
	case GCGlobal:
		return "global"
	case GCBoth:
		return "both"
	}
	return "none"
}

func ParseGC(s string) (GCMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return GCNone, nil
	case "local":
		return GCLocal, nil
	case "global":
		return GCGlobal, nil
	case "", "both":
		return GCBoth, nil
	}
	return GCNone, fmt.Errorf("invalid gc mode %q (expected: none|local|global|both)", s)
}

// MarshalText lets the mode round-trip through TOML.
func (m GCMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *GCMode) UnmarshalText(b []byte) error {
	v, err := ParseGC(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

type SynthConfig struct {
	GC             GCMode   `toml:"gc"`
	Targets        []string `toml:"targets"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
	MaxDepth       int      `toml:"max_depth"`
	MaxIterations  int      `toml:"max_iterations"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Config is the decoded project file. Path is empty for defaults.
type Config struct {
	Synth SynthConfig `toml:"synth"`
	Trace TraceConfig `toml:"trace"`
	Cache CacheConfig `toml:"cache"`

	Path string `toml:"-"`
}

// Default is the configuration used without a project file.
func Default() *Config {
	return &Config{
		Synth: SynthConfig{GC: GCBoth, MaxDiagnostics: 100},
		Trace: TraceConfig{Level: "off", Mode: "stream"},
		Cache: CacheConfig{Enabled: true, Dir: ".minisynth-cache"},
	}
}

// Dir is the directory holding the project file, or "." for defaults.
func (c *Config) Dir() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// CacheDir resolves Cache.Dir against the project directory.
func (c *Config) CacheDir() string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(c.Dir(), c.Cache.Dir)
}

// Error reports an invalid project file.
type Error struct {
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the diagnostic code for configuration problems.
func (e *Error) Code() diag.Code { return diag.ProjConfigInvalid }

// Load decodes path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, &Error{Path: path, Msg: "failed to parse TOML", Err: err}
	}
	if extra := meta.Undecoded(); len(extra) > 0 {
		keys := make([]string, len(extra))
		for i, k := range extra {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, &Error{Path: path, Msg: "unknown keys " + strings.Join(keys, ", ")}
	}
	cfg.Path = path
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover loads the project file above startDir, or returns the defaults.
func Discover(startDir string) (*Config, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	if c.Synth.MaxDiagnostics < 0 {
		return &Error{Path: c.Path, Msg: "synth.max_diagnostics must not be negative"}
	}
	if c.Synth.MaxDepth < 0 || c.Synth.MaxIterations < 0 {
		return &Error{Path: c.Path, Msg: "synth limits must not be negative"}
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return &Error{Path: c.Path, Msg: "trace.level", Err: err}
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return &Error{Path: c.Path, Msg: "trace.mode", Err: err}
	}
	return nil
}
