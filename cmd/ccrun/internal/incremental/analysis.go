// Package incremental decides which files of a C/C++ project must be
// recompiled and whether the binary must be relinked, by comparing content
// and configuration fingerprints against the record of the last successful
// build.
package incremental

import "slices"

// Analysis is the outcome of one staleness pass.
type Analysis struct {
	// DiffFiles lists files whose fingerprint changed, plus sources pulled
	// in by header propagation. Order is deterministic and duplicate-free.
	DiffFiles []string `json:"diff_files"`

	// Rebuild is set when the compile settings changed: every source
	// file must be recompiled.
	Rebuild bool `json:"rebuild"`

	// RebuildRes is set when the resource compiler changed: every resource
	// file must be recompiled.
	RebuildRes bool `json:"rebuild_res"`

	// Relink is set when link settings changed or a file was added to or
	// removed from the tracked set.
	Relink bool `json:"relink"`
}

// NeedsCompile reports whether path is listed in DiffFiles.
func (a *Analysis) NeedsCompile(path string) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.DiffFiles, path)
}

// DiffSet returns DiffFiles as a set, for callers that test many paths.
func (a *Analysis) DiffSet() map[string]bool {
	if a == nil {
		return map[string]bool{}
	}
	set := make(map[string]bool, len(a.DiffFiles))
	for _, f := range a.DiffFiles {
		set[f] = true
	}
	return set
}

// IsEmpty returns true if nothing needs to be redone.
func (a *Analysis) IsEmpty() bool {
	if a == nil {
		return true
	}
	return len(a.DiffFiles) == 0 && !a.Rebuild && !a.RebuildRes && !a.Relink
}
