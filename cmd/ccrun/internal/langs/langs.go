// Package langs provides the fixed C/C++ file classification tables for ccrun.
//
// # Single Source of Truth
//
// This package defines the DETERMINISTIC mapping between file extensions and
// file kinds (source, header, resource) and the source-to-header pairing used
// by the staleness analyzer. The scanner, analyzer, build planner and watcher
// all classify files through this package.
//
// Classification is by extension only; file contents are never inspected.
//
// # Header Pairing
//
// A source file's paired header is derived by swapping the extension
// according to HeaderPairs (".c" -> ".h", ".cpp" -> ".hpp"). There is no
// include parsing: the pairing is a naming convention.
package langs

import (
	"path"
	"strings"
)

// Kind classifies a project file.
type Kind int

const (
	KindOther Kind = iota
	KindSource
	KindHeader
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindHeader:
		return "header"
	case KindResource:
		return "resource"
	default:
		return "other"
	}
}

// SourceExtensions are compiled by the C/C++ compiler.
var SourceExtensions = []string{".c", ".cpp"}

// HeaderExtensions are tracked for change propagation only.
var HeaderExtensions = []string{".h", ".hpp"}

// ResourceExtensions are compiled by the resource compiler.
var ResourceExtensions = []string{".rc"}

// HeaderPairs maps a source extension to its paired header extension.
//
// DETERMINISTIC: every entry in SourceExtensions has exactly one pair.
var HeaderPairs = map[string]string{
	".c":   ".h",
	".cpp": ".hpp",
}

// IgnoredDirs contains directory prefixes to skip during scanning/watching.
//
// Note: Prefix matching means "." matches ".git", ".build", ".vscode", etc.
var IgnoredDirs = []string{
	".",            // Hidden directories, including the default .build output
	"CMakeFiles",   // CMake intermediates
	"cmake-build-", // IDE build trees (cmake-build-debug, ...)
}

// Classify returns the kind of a project-relative path.
func Classify(p string) Kind {
	switch {
	case hasAnySuffix(p, SourceExtensions):
		return KindSource
	case hasAnySuffix(p, HeaderExtensions):
		return KindHeader
	case hasAnySuffix(p, ResourceExtensions):
		return KindResource
	default:
		return KindOther
	}
}

// IsSource reports whether p is a C/C++ source file.
func IsSource(p string) bool { return Classify(p) == KindSource }

// IsHeader reports whether p is a C/C++ header file.
func IsHeader(p string) bool { return Classify(p) == KindHeader }

// IsResource reports whether p is a resource script.
func IsResource(p string) bool { return Classify(p) == KindResource }

// PairedHeader returns the header path paired with a source path by
// swapping its extension. ok is false when p is not a source file.
func PairedHeader(p string) (header string, ok bool) {
	ext := path.Ext(p)
	hext, ok := HeaderPairs[ext]
	if !ok {
		return "", false
	}
	return ChangeExt(p, hext), true
}

// ChangeExt replaces the extension of p with ext (which includes the dot).
// A path without an extension gets ext appended.
func ChangeExt(p, ext string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ext
}

// ExtensionSet returns the set of every tracked extension.
func ExtensionSet() map[string]bool {
	extensions := make(map[string]bool)
	for _, group := range [][]string{SourceExtensions, HeaderExtensions, ResourceExtensions} {
		for _, ext := range group {
			extensions[ext] = true
		}
	}
	return extensions
}

// IgnoreDirSet returns a set of ignored directory prefixes,
// combining defaults with any additional patterns.
func IgnoreDirSet(additional []string) map[string]bool {
	dirs := make(map[string]bool)
	for _, dir := range IgnoredDirs {
		dirs[dir] = true
	}
	for _, dir := range additional {
		dirs[dir] = true
	}
	return dirs
}

// IsIgnoredDir reports whether a directory base name matches an ignored prefix.
func IsIgnoredDir(name string, ignored map[string]bool) bool {
	if name == "." || name == "" {
		return false
	}
	for prefix := range ignored {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func hasAnySuffix(p string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
