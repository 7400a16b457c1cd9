package incremental

import (
	"encoding/json"

	"github.com/albertocavalcante/ccrun/pkg/config"
)

// ConfigIDs are fingerprints over three disjoint subsets of the build
// configuration. Each one invalidates exactly one build stage.
type ConfigIDs struct {
	// Build covers the build path, compiler path and compiler options.
	Build string
	// BuildRes covers the resource compiler path.
	BuildRes string
	// Link covers linker options, libraries and library search paths.
	Link string
}

// Field order is part of the fingerprint.
type buildSubset struct {
	BuildPath       string   `json:"buildPath"`
	CompilerPath    string   `json:"compilerPath"`
	CompilerOptions []string `json:"compilerOptions"`
}

type buildResSubset struct {
	ResCompilerPath string `json:"resCompilerPath"`
}

type linkSubset struct {
	LinkerOptions  []string `json:"linkerOptions"`
	LinkerLibs     []string `json:"linkerLibs"`
	LinkerLibPaths []string `json:"linkerLibPaths"`
}

// ComputeConfigIDs fingerprints the configuration subsets. Settings outside
// the three subsets (run args, includes, publics, linker path, ...) do not
// contribute.
func ComputeConfigIDs(cfg *config.Config) ConfigIDs {
	return ConfigIDs{
		Build: hashJSON(buildSubset{
			BuildPath:       cfg.Build.Path,
			CompilerPath:    cfg.Compiler.Path,
			CompilerOptions: nonNil(cfg.Compiler.Options),
		}),
		BuildRes: hashJSON(buildResSubset{
			ResCompilerPath: cfg.Resource.Path,
		}),
		Link: hashJSON(linkSubset{
			LinkerOptions:  nonNil(cfg.Linker.Options),
			LinkerLibs:     nonNil(cfg.Linker.Libs),
			LinkerLibPaths: nonNil(cfg.Linker.LibPaths),
		}),
	}
}

// Apply writes the fingerprints into the reserved keys of r.
func (ids ConfigIDs) Apply(r ModeRecord) {
	r[KeyBuildID] = ids.Build
	r[KeyBuildResID] = ids.BuildRes
	r[KeyLinkID] = ids.Link
}

func hashJSON(v any) string {
	// Marshalling these plain structs cannot fail.
	data, _ := json.Marshal(v)
	return HashBytes(data)
}

// nonNil makes nil and empty lists fingerprint identically.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
