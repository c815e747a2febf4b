package program

import (
	"sort"

	"ngreflect/internal/engine/parser"
	"ngreflect/internal/engine/syntax"
)

// FromSources parses in-memory sources keyed by absolute path and wires them
// together with a MemoryResolver. packages maps bare specifiers to paths.
func FromSources(p *parser.Parser, sources map[string]string, packages map[string]string) (*Program, error) {
	paths := make([]string, 0, len(sources))
	for path := range sources {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	files := make([]*syntax.File, 0, len(paths))
	for _, path := range paths {
		f, err := p.ParseFile(path, []byte(sources[path]))
		if err != nil {
			closeAll(files)
			return nil, err
		}
		files = append(files, f)
	}
	return New(files, NewMemoryResolver(paths, packages)), nil
}
