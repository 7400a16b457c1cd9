// Package config provides configuration management for ccrun.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/ccrun/config.toml)
//  3. Project config (.ccrun/config.toml or ccrun.toml)
//  4. Environment variables (CCRUN_*), falling back to the project .env
//  5. CLI flags (highest priority)
package config

import (
	"fmt"
	"slices"
)

// Mode is a named build profile with its own fingerprint state and
// output directories.
type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

// Modes lists every known build mode.
var Modes = []Mode{ModeDebug, ModeRelease}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !slices.Contains(Modes, m) {
		return "", fmt.Errorf("unknown build mode %q (want one of %v)", s, Modes)
	}
	return m, nil
}

// Config is the main configuration struct for ccrun.
type Config struct {
	// Build configures file selection and output layout.
	Build BuildConfig `toml:"build"`

	// Compiler configures the C/C++ compiler.
	Compiler ToolConfig `toml:"compiler"`

	// Resource configures the resource compiler used for .rc files.
	Resource ToolConfig `toml:"resource"`

	// Linker configures the final link step.
	Linker LinkerConfig `toml:"linker"`

	// Run configures how the built binary is launched.
	Run RunConfig `toml:"run"`
}

// BuildConfig holds project layout settings.
type BuildConfig struct {
	// Path is the build output root, relative to the project root.
	Path string `toml:"path"`

	// Mode is the active build mode ("debug" or "release").
	Mode Mode `toml:"mode"`

	// Includes are doublestar globs selecting files to build.
	Includes []string `toml:"includes"`

	// Excludes are doublestar globs removed from the include set.
	Excludes []string `toml:"excludes"`

	// LibPrefix is the path prefix of the library bucket used when a
	// header change is propagated to sources.
	LibPrefix string `toml:"lib_prefix"`

	// BinName overrides the output binary name.
	BinName string `toml:"bin_name"`
}

// ToolConfig holds an executable and its options.
type ToolConfig struct {
	Path    string   `toml:"path"`
	Options []string `toml:"options"`
}

// LinkerConfig holds linker settings.
type LinkerConfig struct {
	Path     string   `toml:"path"`
	Options  []string `toml:"options"`
	Libs     []string `toml:"libs"`
	LibPaths []string `toml:"lib_paths"`
}

// RunConfig holds settings for running the built binary.
type RunConfig struct {
	// Args are passed to the binary on run.
	Args []string `toml:"args"`

	// Publics are directories whose contents are copied next to the binary
	// after every successful build.
	Publics []string `toml:"publics"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Path:      ".build",
			Mode:      ModeRelease,
			Includes:  []string{"**/*.c", "**/*.cpp", "**/*.rc"},
			Excludes:  []string{},
			LibPrefix: "lib/",
		},
		Compiler: ToolConfig{
			Path:    "gcc",
			Options: []string{},
		},
		Resource: ToolConfig{
			Path:    "windres",
			Options: []string{},
		},
		Linker: LinkerConfig{
			Path:     "gcc",
			Options:  []string{},
			Libs:     []string{},
			LibPaths: []string{},
		},
		Run: RunConfig{
			Args:    []string{},
			Publics: []string{},
		},
	}
}

// Merge merges another config into this one (other takes precedence).
// Empty strings and nil slices in other leave the receiver unchanged; an
// explicitly empty slice clears the corresponding setting.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	mergeString(&c.Build.Path, other.Build.Path)
	if other.Build.Mode != "" {
		c.Build.Mode = other.Build.Mode
	}
	mergeSlice(&c.Build.Includes, other.Build.Includes)
	mergeSlice(&c.Build.Excludes, other.Build.Excludes)
	mergeString(&c.Build.LibPrefix, other.Build.LibPrefix)
	mergeString(&c.Build.BinName, other.Build.BinName)

	mergeString(&c.Compiler.Path, other.Compiler.Path)
	mergeSlice(&c.Compiler.Options, other.Compiler.Options)

	mergeString(&c.Resource.Path, other.Resource.Path)
	mergeSlice(&c.Resource.Options, other.Resource.Options)

	mergeString(&c.Linker.Path, other.Linker.Path)
	mergeSlice(&c.Linker.Options, other.Linker.Options)
	mergeSlice(&c.Linker.Libs, other.Linker.Libs)
	mergeSlice(&c.Linker.LibPaths, other.Linker.LibPaths)

	mergeSlice(&c.Run.Args, other.Run.Args)
	mergeSlice(&c.Run.Publics, other.Run.Publics)
}

// Validate reports settings that would make a build impossible.
func (c *Config) Validate() error {
	if c.Build.Path == "" {
		return fmt.Errorf("build.path must not be empty")
	}
	if _, err := ParseMode(string(c.Build.Mode)); err != nil {
		return fmt.Errorf("build.mode: %w", err)
	}
	if c.Compiler.Path == "" {
		return fmt.Errorf("compiler.path must not be empty")
	}
	if c.Linker.Path == "" {
		return fmt.Errorf("linker.path must not be empty")
	}
	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeSlice(dst *[]string, v []string) {
	if v != nil {
		*dst = slices.Clone(v)
	}
}
