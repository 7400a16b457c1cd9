package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/build"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/runner"
	"github.com/albertocavalcante/ccrun/pkg/config"
)

// resolveRoot returns the absolute project root for the --dir flag or the
// working directory.
func resolveRoot() (string, error) {
	dir := globalFlags.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("invalid project directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project path must be a directory: %s", dir)
	}
	return config.ProjectRoot(abs), nil
}

// loadConfig layers CLI flags over the file and environment configuration.
func loadConfig(root string) (*config.Config, error) {
	cfg := config.LoadFrom(root)
	if globalFlags.mode != "" {
		m, err := config.ParseMode(globalFlags.mode)
		if err != nil {
			return nil, err
		}
		cfg.Build.Mode = m
	}
	if globalFlags.buildPath != "" {
		cfg.Build.Path = globalFlags.buildPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newBuilder creates the builder for the current project. Toolchain output
// goes to out and errOut.
func newBuilder(out, errOut io.Writer) (*build.Builder, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	r := runner.New(
		runner.WithDir(root),
		runner.WithStdout(out),
		runner.WithStderr(errOut),
	)
	b := build.New(root, cfg, r)
	b.Out = out
	return b, nil
}
