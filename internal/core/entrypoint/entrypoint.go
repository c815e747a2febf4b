// # internal/core/entrypoint/entrypoint.go
package entrypoint

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"ngreflect/internal/core/errors"
	"ngreflect/internal/engine/parser"
	"ngreflect/internal/engine/program"
	"ngreflect/internal/engine/reflection"
	"ngreflect/internal/shared/util"
)

// Bundle is one format of an entry point: the module to start loading from
// and the typings that describe its public API.
type Bundle struct {
	Package  string
	Dir      string
	Property string
	Format   reflection.Format
	Path     string
	Typings  string
}

// EntryPoint is a directory with a package.json naming at least one bundle.
type EntryPoint struct {
	Name    string
	Dir     string
	Typings string
	Bundles []Bundle
}

// formatProperties lists the package.json fields in the order they are
// consulted. "main" has no fixed format and is sniffed.
var formatProperties = []struct {
	name   string
	format reflection.Format
}{
	{"fesm2015", reflection.FormatESM2015},
	{"esm2015", reflection.FormatESM2015},
	{"es2015", reflection.FormatESM2015},
	{"fesm5", reflection.FormatESM5},
	{"esm5", reflection.FormatESM5},
	{"module", reflection.FormatESM5},
	{"main", ""},
}

type Options struct {
	Include []string
	Exclude []string
	// Formats keeps only bundles of these formats; empty keeps all.
	Formats []string
	Logger  *slog.Logger
}

type Discoverer struct {
	include []glob.Glob
	exclude []glob.Glob
	formats map[reflection.Format]bool
	parser  *parser.Parser
	logger  *slog.Logger
}

func NewDiscoverer(p *parser.Parser, opts Options) (*Discoverer, error) {
	d := &Discoverer{parser: p, logger: opts.Logger}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	var err error
	if d.include, err = compileAll(opts.Include); err != nil {
		return nil, err
	}
	if d.exclude, err = compileAll(opts.Exclude); err != nil {
		return nil, err
	}
	if len(opts.Formats) > 0 {
		d.formats = make(map[reflection.Format]bool, len(opts.Formats))
		for _, f := range opts.Formats {
			d.formats[reflection.Format(strings.ToLower(f))] = true
		}
	}
	return d, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(util.SlashPath(p), '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid glob %q", p))
		}
		out = append(out, g)
	}
	return out, nil
}

// Discover walks every root for package.json files and returns the entry
// points they describe, sorted by directory.
func (d *Discoverer) Discover(ctx context.Context, roots []string) ([]EntryPoint, error) {
	var out []EntryPoint
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "entry point root missing"), errors.CtxPath, abs)
		}
		err = filepath.WalkDir(abs, func(path string, de fs.DirEntry, err error) error {
			if err != nil {
				d.logger.Debug("skipping unreadable path", "path", path, "error", err)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if de.IsDir() {
				name := de.Name()
				if path != abs && (name == "node_modules" || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if de.Name() != "package.json" {
				return nil
			}
			dir := filepath.Dir(path)
			if !d.selected(util.RelSlash(abs, dir)) {
				return nil
			}
			ep, ok, err := d.Read(dir)
			if err != nil {
				d.logger.Warn("skipping package", "dir", dir, "error", err)
				return nil
			}
			if ok {
				out = append(out, ep)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out, nil
}

func (d *Discoverer) selected(rel string) bool {
	included := len(d.include) == 0
	for _, g := range d.include {
		if g.Match(rel) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, g := range d.exclude {
		if g.Match(rel) {
			return false
		}
	}
	return true
}

// Read describes the entry point in dir. ok is false when its package.json
// names no bundle this discoverer keeps.
func (d *Discoverer) Read(dir string) (EntryPoint, bool, error) {
	fields, err := program.ReadPackageFields(filepath.Join(dir, "package.json"))
	if err != nil {
		return EntryPoint{}, false, errors.AddContext(errors.Wrap(err, errors.CodeParseFailed, "read package.json"), errors.CtxPath, dir)
	}
	ep := EntryPoint{Name: fields["name"], Dir: dir}
	if ep.Name == "" {
		ep.Name = filepath.Base(dir)
	}
	for _, key := range []string{"typings", "types"} {
		if v := fields[key]; v != "" {
			if p, ok := probe(dir, v, ".d.ts"); ok {
				ep.Typings = p
				break
			}
		}
	}

	seen := make(map[string]bool)
	for _, prop := range formatProperties {
		value := fields[prop.name]
		if value == "" {
			continue
		}
		path, ok := probe(dir, value, ".js")
		if !ok {
			d.logger.Debug("format property points at a missing file", "dir", dir, "property", prop.name, "value", value)
			continue
		}
		format := prop.format
		if format == "" {
			format = d.sniff(path)
		}
		key := string(format) + "\x00" + path
		if seen[key] || (d.formats != nil && !d.formats[format]) {
			continue
		}
		seen[key] = true
		ep.Bundles = append(ep.Bundles, Bundle{
			Package:  ep.Name,
			Dir:      dir,
			Property: prop.name,
			Format:   format,
			Path:     path,
			Typings:  ep.Typings,
		})
	}
	return ep, len(ep.Bundles) > 0, nil
}

// sniff tells a UMD bundle from a plain CommonJS one by its wrapper.
func (d *Discoverer) sniff(path string) reflection.Format {
	f, err := d.parser.ReadFile(path)
	if err != nil {
		d.logger.Debug("cannot sniff main bundle", "path", path, "error", err)
		return reflection.FormatCommonJS
	}
	defer f.Close()
	if reflection.IsUMDModule(f) {
		return reflection.FormatUMD
	}
	return reflection.FormatCommonJS
}

func probe(dir, value, ext string) (string, bool) {
	base := filepath.Join(dir, filepath.FromSlash(value))
	for _, candidate := range []string{base, base + ext, filepath.Join(base, "index"+ext)} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Clean(candidate), true
		}
	}
	return "", false
}
