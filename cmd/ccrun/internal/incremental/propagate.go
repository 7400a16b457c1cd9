package incremental

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/langs"
)

// Propagator expands a set of changed files with the sources that depend on
// changed headers. Implementations must only add paths present in files.
type Propagator interface {
	Propagate(diff, files []string) []string
}

// DefaultLibPrefix is the path prefix of the library bucket.
const DefaultLibPrefix = "lib/"

// PrefixPropagator approximates header dependencies with two buckets: paths
// under LibPrefix and everything else. A changed header in a bucket marks
// every source file of the same bucket as changed. Each bucket rule is
// evaluated once; the result is not iterated to a fixed point.
type PrefixPropagator struct {
	LibPrefix string
}

// Propagate implements Propagator.
func (p PrefixPropagator) Propagate(diff, files []string) []string {
	out := slices.Clone(diff)
	seen := make(map[string]bool, len(out))
	for _, f := range out {
		seen[f] = true
	}

	var libHeader, otherHeader bool
	for _, f := range diff {
		if !langs.IsHeader(f) {
			continue
		}
		if p.inLib(f) {
			libHeader = true
		} else {
			otherHeader = true
		}
	}

	addBucket := func(lib bool) {
		for _, f := range files {
			if seen[f] || !langs.IsSource(f) || p.inLib(f) != lib {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}

	if libHeader {
		addBucket(true)
	}
	if otherHeader {
		addBucket(false)
	}
	return out
}

func (p PrefixPropagator) inLib(path string) bool {
	return p.LibPrefix != "" && strings.HasPrefix(path, p.LibPrefix)
}
