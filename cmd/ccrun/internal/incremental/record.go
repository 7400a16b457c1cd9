package incremental

import (
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/ccrun/pkg/config"
)

// Reserved keys hold configuration fingerprints inside a ModeRecord.
const (
	KeyBuildID    = "__buildId"
	KeyBuildResID = "__buildResId"
	KeyLinkID     = "__linkId"
)

// ReservedPrefix is shared by every reserved key.
const ReservedPrefix = "__"

// ReservedKeys lists the configuration fingerprint slots.
var ReservedKeys = []string{KeyBuildID, KeyBuildResID, KeyLinkID}

// IsReservedKey reports whether key is a configuration fingerprint slot
// rather than a tracked file path. Only the exact slot names are reserved;
// paths such as "__tests__/check.c" are ordinary files.
func IsReservedKey(key string) bool {
	return strings.HasPrefix(key, ReservedPrefix) && slices.Contains(ReservedKeys, key)
}

// ModeRecord maps project-relative, forward-slash file paths to content
// fingerprints, plus the three reserved configuration fingerprints.
type ModeRecord map[string]string

// Clone returns a deep copy. A nil record clones to an empty one.
func (r ModeRecord) Clone() ModeRecord {
	if r == nil {
		return ModeRecord{}
	}
	return maps.Clone(r)
}

// Files returns the sorted tracked file paths, excluding reserved keys.
func (r ModeRecord) Files() []string {
	files := make([]string, 0, len(r))
	for key := range r {
		if !IsReservedKey(key) {
			files = append(files, key)
		}
	}
	slices.Sort(files)
	return files
}

// FileCount returns the number of tracked files, excluding reserved keys.
func (r ModeRecord) FileCount() int {
	n := 0
	for key := range r {
		if !IsReservedKey(key) {
			n++
		}
	}
	return n
}

// IDs returns the configuration fingerprints stored in the record. Missing
// slots are empty strings, which never equal a computed fingerprint.
func (r ModeRecord) IDs() ConfigIDs {
	return ConfigIDs{
		Build:    r[KeyBuildID],
		BuildRes: r[KeyBuildResID],
		Link:     r[KeyLinkID],
	}
}

// Record is the persisted fingerprint state: build mode name -> ModeRecord.
type Record map[string]ModeRecord

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for mode, mr := range r {
		out[mode] = mr.Clone()
	}
	return out
}

// EnsureModes initializes every known mode that is missing.
func (r Record) EnsureModes(modes []config.Mode) {
	for _, m := range modes {
		if r[string(m)] == nil {
			r[string(m)] = ModeRecord{}
		}
	}
}

// Mode returns the ModeRecord for m, or nil when absent.
func (r Record) Mode(m config.Mode) ModeRecord {
	return r[string(m)]
}
