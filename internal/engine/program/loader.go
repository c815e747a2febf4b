// # internal/engine/program/loader.go
package program

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ngreflect/internal/engine/parser"
	"ngreflect/internal/engine/syntax"
)

type LoadOptions struct {
	Resolver ModuleResolver
	// FollowExternal also loads files behind bare (package) specifiers.
	FollowExternal bool
	// MaxFiles caps the number of files read; zero means no cap.
	MaxFiles int
	Logger   *slog.Logger
}

// Load reads entries and every module they reach, breadth first, and returns
// a program over the parsed files. Files that fail to load after the entries
// are logged and skipped.
func Load(ctx context.Context, p *parser.Parser, entries []string, opts LoadOptions) (*Program, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = FSResolver{NodeModules: opts.FollowExternal}
	}

	type pending struct {
		path  string
		entry bool
	}
	queue := make([]pending, 0, len(entries))
	seen := make(map[string]bool)
	for _, e := range entries {
		abs, err := filepath.Abs(e)
		if err != nil {
			return nil, fmt.Errorf("resolve entry %s: %w", e, err)
		}
		if !seen[abs] {
			seen[abs] = true
			queue = append(queue, pending{path: abs, entry: true})
		}
	}

	var files []*syntax.File
	type link struct{ specifier, from, target string }
	var links []link

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			closeAll(files)
			return nil, err
		}
		if opts.MaxFiles > 0 && len(files) >= opts.MaxFiles {
			logger.Warn("program file cap reached", "max_files", opts.MaxFiles, "pending", len(queue))
			break
		}
		next := queue[0]
		queue = queue[1:]

		content, err := os.ReadFile(next.path)
		if err == nil {
			var f *syntax.File
			f, err = p.ParseFile(next.path, content)
			if err == nil {
				files = append(files, f)
				for _, spec := range ModuleSpecifiers(f) {
					if !IsRelative(spec) && !opts.FollowExternal {
						continue
					}
					target, ok := resolver.ResolveModule(spec, next.path)
					if !ok {
						logger.Debug("module not resolved", "specifier", spec, "from", next.path)
						continue
					}
					links = append(links, link{specifier: spec, from: next.path, target: target})
					if !seen[target] {
						seen[target] = true
						queue = append(queue, pending{path: target})
					}
				}
				continue
			}
		}
		if next.entry {
			closeAll(files)
			return nil, fmt.Errorf("load entry %s: %w", next.path, err)
		}
		logger.Warn("skipping unreadable module", "path", next.path, "error", err)
	}

	prog := New(files, resolver)
	for _, l := range links {
		prog.link(l.specifier, l.from, l.target)
	}
	return prog, nil
}

func closeAll(files []*syntax.File) {
	for _, f := range files {
		f.Close()
	}
}

// ModuleSpecifiers lists the specifiers a file depends on: require calls,
// import and export-from statements, in source order and without duplicates.
func ModuleSpecifiers(f *syntax.File) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(n syntax.Node) {
		if s, ok := syntax.StringValue(n); ok && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	syntax.Walk(f.Root(), func(n syntax.Node) bool {
		switch n.Kind() {
		case "import_statement", "export_statement":
			if src := n.Field("source"); !src.IsZero() {
				add(src)
			}
		case "call_expression":
			callee := n.Field("function")
			args := syntax.CallArguments(n)
			if syntax.IsIdentifier(callee) && callee.Text() == "require" && len(args) == 1 {
				add(args[0])
			}
		}
		return true
	})
	return out
}
