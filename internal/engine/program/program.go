// # internal/engine/program/program.go
package program

import (
	"path/filepath"
	"sort"

	"ngreflect/internal/engine/syntax"
	"ngreflect/internal/shared/cache"
)

// ModuleResolver maps a module specifier, as written in containingFile, to
// the path of the file it denotes.
type ModuleResolver interface {
	ResolveModule(specifier, containingFile string) (string, bool)
}

// BatchModuleResolver resolves several specifiers of one file at once. The
// result has one entry per specifier; "" marks a failure.
type BatchModuleResolver interface {
	ResolveModuleNames(specifiers []string, containingFile string) []string
}

type resolveKey struct {
	specifier string
	from      string
}

// Program is an immutable set of parsed files plus the means to resolve
// module specifiers between them and to look up lexical declarations.
// All file reads happen before a Program is built.
type Program struct {
	files    map[string]*syntax.File
	order    []string
	resolver ModuleResolver
	links    map[resolveKey]string
	resolved *cache.Memo[resolveKey, string]
	checker  *Checker
}

// New builds a program over already parsed files.
func New(files []*syntax.File, resolver ModuleResolver) *Program {
	p := &Program{
		files:    make(map[string]*syntax.File, len(files)),
		resolver: resolver,
		links:    make(map[resolveKey]string),
		resolved: cache.NewMemo[resolveKey, string](),
		checker:  NewChecker(),
	}
	for _, f := range files {
		key := filepath.Clean(f.Path)
		if _, dup := p.files[key]; dup {
			continue
		}
		p.files[key] = f
		p.order = append(p.order, key)
	}
	return p
}

func (p *Program) File(path string) (*syntax.File, bool) {
	f, ok := p.files[filepath.Clean(path)]
	return f, ok
}

// Files returns the files in load order.
func (p *Program) Files() []*syntax.File {
	out := make([]*syntax.File, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.files[key])
	}
	return out
}

// Paths returns the sorted file paths.
func (p *Program) Paths() []string {
	out := append([]string(nil), p.order...)
	sort.Strings(out)
	return out
}

func (p *Program) Len() int { return len(p.files) }

func (p *Program) Checker() *Checker { return p.checker }

// link records a resolution computed while loading.
func (p *Program) link(specifier, from, target string) {
	p.links[resolveKey{specifier: specifier, from: filepath.Clean(from)}] = filepath.Clean(target)
}

// ResolvePath resolves specifier relative to the file at from. Links recorded
// at load time win; otherwise a batch resolver is preferred over a
// single-name one.
func (p *Program) ResolvePath(specifier, from string) (string, bool) {
	key := resolveKey{specifier: specifier, from: filepath.Clean(from)}
	if target, ok := p.links[key]; ok {
		return target, true
	}
	if p.resolver == nil {
		return "", false
	}
	target := p.resolved.GetOrCompute(key, func() string {
		if batch, ok := p.resolver.(BatchModuleResolver); ok {
			out := batch.ResolveModuleNames([]string{specifier}, from)
			if len(out) == 1 && out[0] != "" {
				return filepath.Clean(out[0])
			}
			return ""
		}
		if resolved, ok := p.resolver.ResolveModule(specifier, from); ok {
			return filepath.Clean(resolved)
		}
		return ""
	})
	return target, target != ""
}

// ResolveModule returns the program file that specifier denotes from the
// given file, or false when it does not resolve into this program.
func (p *Program) ResolveModule(specifier string, from *syntax.File) (*syntax.File, bool) {
	if from == nil {
		return nil, false
	}
	target, ok := p.ResolvePath(specifier, from.Path)
	if !ok {
		return nil, false
	}
	return p.File(target)
}

// Close releases every syntax tree held by the program.
func (p *Program) Close() {
	for _, f := range p.files {
		f.Close()
	}
}
