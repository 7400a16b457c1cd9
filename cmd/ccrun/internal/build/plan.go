package build

import (
	"os"
	"path/filepath"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/incremental"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/langs"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/runner"
	"github.com/albertocavalcante/ccrun/pkg/config"
)

// StepKind identifies the toolchain stage of a Step.
type StepKind int

const (
	StepCompile StepKind = iota
	StepResource
	StepLink
)

func (k StepKind) String() string {
	switch k {
	case StepCompile:
		return "compile"
	case StepResource:
		return "resource"
	case StepLink:
		return "link"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name in JSON reports.
func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Step is one toolchain invocation. Input and Output are relative to the
// project root.
type Step struct {
	Kind    StepKind       `json:"kind"`
	Input   string         `json:"input,omitempty"`
	Output  string         `json:"output"`
	Command runner.Command `json:"-"`
}

// Plan is the ordered list of steps needed to bring the binary up to date.
type Plan struct {
	Steps []Step
	// Objects are every object and compiled resource the link consumes,
	// in file order.
	Objects []string
	// Binary is the output path relative to the project root.
	Binary string
}

// UpToDate reports whether nothing needs to run.
func (p *Plan) UpToDate() bool {
	return len(p.Steps) == 0
}

// Commands returns the commands of every step in order.
func (p *Plan) Commands() []runner.Command {
	cmds := make([]runner.Command, len(p.Steps))
	for i, s := range p.Steps {
		cmds[i] = s.Command
	}
	return cmds
}

// Compiles returns the number of compile and resource steps.
func (p *Plan) Compiles() int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind != StepLink {
			n++
		}
	}
	return n
}

// Plan derives the build steps for files from an analysis. A source is
// compiled when compile settings changed, its fingerprint changed, or its
// object file is missing; resources likewise with the resource compiler.
// The binary is linked whenever anything was compiled, a relink was
// requested, or the binary is missing.
func (b *Builder) Plan(files []string, a *incremental.Analysis) *Plan {
	cfg := b.Config
	mode := b.Mode()
	objDir := filepath.Join(cfg.Build.Path, string(mode), "obj")

	p := &Plan{Binary: b.relBinary()}
	changed := a.DiffSet()

	for _, f := range files {
		switch langs.Classify(f) {
		case langs.KindSource:
			obj := filepath.Join(objDir, filepath.FromSlash(langs.ChangeExt(f, ".o")))
			p.Objects = append(p.Objects, obj)
			if a.Rebuild || changed[f] || !b.exists(obj) {
				args := append([]string{cfg.Compiler.Path}, cfg.Compiler.Options...)
				if mode == config.ModeDebug {
					args = append(args, "-g")
				}
				args = append(args, "-c", f, "-o", obj)
				p.Steps = append(p.Steps, Step{
					Kind:    StepCompile,
					Input:   f,
					Output:  obj,
					Command: runner.Command{Args: args, Dir: b.Root},
				})
			}

		case langs.KindResource:
			res := filepath.Join(objDir, filepath.FromSlash(langs.ChangeExt(f, ".res")))
			p.Objects = append(p.Objects, res)
			if a.RebuildRes || changed[f] || !b.exists(res) {
				args := append([]string{cfg.Resource.Path}, cfg.Resource.Options...)
				args = append(args, f, "-o", res)
				p.Steps = append(p.Steps, Step{
					Kind:    StepResource,
					Input:   f,
					Output:  res,
					Command: runner.Command{Args: args, Dir: b.Root},
				})
			}
		}
	}

	if len(p.Steps) > 0 || a.Relink || !b.exists(p.Binary) {
		args := []string{cfg.Linker.Path, "-o", p.Binary}
		args = append(args, p.Objects...)
		for _, dir := range cfg.Linker.LibPaths {
			args = append(args, "-L"+dir)
		}
		for _, lib := range cfg.Linker.Libs {
			args = append(args, "-l"+lib)
		}
		args = append(args, cfg.Linker.Options...)
		p.Steps = append(p.Steps, Step{
			Kind:    StepLink,
			Output:  p.Binary,
			Command: runner.Command{Args: args, Dir: b.Root},
		})
	}

	return p
}

// exists reports whether a project-relative path exists.
func (b *Builder) exists(rel string) bool {
	_, err := os.Stat(b.abs(rel))
	return err == nil
}

func (b *Builder) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(b.Root, rel)
}
