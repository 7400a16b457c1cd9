// Package fsutil provides best-effort filesystem helpers. Failures are
// collected as warnings so a build can proceed and report them at the end.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Warnings collects non-fatal filesystem failures.
type Warnings []error

// Add records err if it is non-nil.
func (w *Warnings) Add(err error) {
	if err != nil {
		*w = append(*w, err)
	}
}

// Merge appends every warning of other.
func (w *Warnings) Merge(other Warnings) {
	*w = append(*w, other...)
}

// Empty reports whether no warnings were collected.
func (w Warnings) Empty() bool {
	return len(w) == 0
}

// Strings renders each warning for display.
func (w Warnings) Strings() []string {
	out := make([]string, len(w))
	for i, err := range w {
		out[i] = err.Error()
	}
	return out
}

func (w Warnings) Error() string {
	return strings.Join(w.Strings(), "; ")
}

// Err returns the warnings as a single joined error, or nil.
func (w Warnings) Err() error {
	if w.Empty() {
		return nil
	}
	return errors.Join(w...)
}

// MkdirAll creates every directory, recording failures.
func MkdirAll(dirs ...string) Warnings {
	var w Warnings
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			w.Add(fmt.Errorf("create %s: %w", dir, err))
		}
	}
	return w
}

// RemoveAll removes each path recursively. A missing path is not a failure.
func RemoveAll(paths ...string) Warnings {
	var w Warnings
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.Add(fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return w
}

// RemoveFile removes a single file. A missing file is not a failure.
func RemoveFile(path string) Warnings {
	var w Warnings
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.Add(fmt.Errorf("remove %s: %w", path, err))
	}
	return w
}

// CopyDir copies the contents of src into dst. Files that already exist in
// dst are left untouched. A missing src is reported as a warning.
func CopyDir(src, dst string) Warnings {
	var w Warnings

	info, err := os.Stat(src)
	if err != nil {
		w.Add(fmt.Errorf("copy %s: %w", src, err))
		return w
	}
	if !info.IsDir() {
		w.Add(fmt.Errorf("copy %s: not a directory", src))
		return w
	}

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.Add(fmt.Errorf("copy %s: %w", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			w.Add(err)
			return nil
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				w.Add(fmt.Errorf("create %s: %w", target, err))
				return filepath.SkipDir
			}
			return nil
		}

		if _, err := os.Lstat(target); err == nil {
			return nil
		}
		if err := copyFile(path, target); err != nil {
			w.Add(fmt.Errorf("copy %s: %w", path, err))
		}
		return nil
	})
	w.Add(walkErr)
	return w
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
