package incremental

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/langs"
	"github.com/albertocavalcante/ccrun/pkg/util"
)

// ScanConfig configures the scanner.
type ScanConfig struct {
	Root     string
	Includes []string // doublestar globs, matched against slash paths
	Excludes []string
	// SkipPaths are project-relative directories never descended into,
	// such as the build output root.
	SkipPaths  []string
	IgnoreDirs []string // Additional dir name prefixes to ignore
}

// Scanner enumerates the project files the analyzer is asked to classify.
type Scanner struct {
	root       string
	includes   []string
	excludes   []string
	skipPaths  []string
	ignoreDirs map[string]bool
}

// NewScanner creates a scanner with the given config. Invalid glob
// patterns are reported here rather than silently matching nothing.
func NewScanner(cfg ScanConfig) (*Scanner, error) {
	for _, p := range slices.Concat(cfg.Includes, cfg.Excludes) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	skip := make([]string, 0, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		p = strings.Trim(filepath.ToSlash(filepath.Clean(p)), "/")
		if p != "" && p != "." && !strings.HasPrefix(p, "..") {
			skip = append(skip, p)
		}
	}

	return &Scanner{
		root:       cfg.Root,
		includes:   cfg.Includes,
		excludes:   cfg.Excludes,
		skipPaths:  skip,
		ignoreDirs: langs.IgnoreDirSet(cfg.IgnoreDirs),
	}, nil
}

// Scan walks the project and returns sorted, project-relative,
// forward-slash paths matching an include and no exclude pattern.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if langs.IsIgnoredDir(d.Name(), s.ignoreDirs) || slices.Contains(s.skipPaths, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.matches(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return util.SortedUnique(files), nil
}

func (s *Scanner) matches(rel string) bool {
	included := false
	for _, p := range s.includes {
		if doublestar.MatchUnvalidated(p, rel) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range s.excludes {
		if doublestar.MatchUnvalidated(p, rel) {
			return false
		}
	}
	return true
}
