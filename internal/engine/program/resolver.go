package program

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var relativePath = regexp.MustCompile(`^\.\.?(/|$)`)

// IsRelative reports whether specifier is resolved against the importing
// file rather than a package directory.
func IsRelative(specifier string) bool {
	return relativePath.MatchString(specifier)
}

var (
	sourceExtensions = []string{".js", ".mjs", ".cjs"}
	typingExtensions = []string{".d.ts"}
	sourceFields     = []string{"module", "main"}
	typingFields     = []string{"typings", "types"}
)

// FSResolver resolves specifiers the way Node does for CommonJS, against the
// real file system.
type FSResolver struct {
	// Typings switches to .d.ts files and the typings package.json fields.
	Typings bool
	// NodeModules enables lookup of bare specifiers in node_modules.
	NodeModules bool
}

func (r FSResolver) extensions() []string {
	if r.Typings {
		return typingExtensions
	}
	return sourceExtensions
}

func (r FSResolver) fields() []string {
	if r.Typings {
		return typingFields
	}
	return sourceFields
}

func (r FSResolver) ResolveModule(specifier, containingFile string) (string, bool) {
	if IsRelative(specifier) || filepath.IsAbs(specifier) {
		base := specifier
		if !filepath.IsAbs(base) {
			base = filepath.Join(filepath.Dir(containingFile), specifier)
		}
		return r.probe(base)
	}
	if !r.NodeModules {
		return "", false
	}
	for dir := filepath.Dir(containingFile); ; dir = filepath.Dir(dir) {
		if target, ok := r.probe(filepath.Join(dir, "node_modules", specifier)); ok {
			return target, true
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}
	return "", false
}

func (r FSResolver) probe(base string) (string, bool) {
	if isFile(base) {
		return filepath.Clean(base), true
	}
	for _, ext := range r.extensions() {
		if isFile(base + ext) {
			return filepath.Clean(base + ext), true
		}
	}
	if !isDir(base) {
		return "", false
	}
	if fields, err := ReadPackageFields(filepath.Join(base, "package.json")); err == nil {
		for _, name := range r.fields() {
			if rel := fields[name]; rel != "" {
				if target, ok := r.probeFile(filepath.Join(base, rel)); ok {
					return target, true
				}
			}
		}
	}
	for _, ext := range r.extensions() {
		index := filepath.Join(base, "index"+ext)
		if isFile(index) {
			return index, true
		}
	}
	return "", false
}

func (r FSResolver) probeFile(p string) (string, bool) {
	if isFile(p) {
		return filepath.Clean(p), true
	}
	for _, ext := range r.extensions() {
		if isFile(p + ext) {
			return filepath.Clean(p + ext), true
		}
	}
	return "", false
}

// ReadPackageFields returns the string-valued top-level fields of a
// package.json file.
func ReadPackageFields(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// MemoryResolver resolves against a fixed set of paths. Bare specifiers are
// looked up in Packages, which maps a package name to its entry file.
type MemoryResolver struct {
	paths    map[string]bool
	Packages map[string]string
}

func NewMemoryResolver(paths []string, packages map[string]string) *MemoryResolver {
	r := &MemoryResolver{paths: make(map[string]bool, len(paths)), Packages: packages}
	for _, p := range paths {
		r.paths[path.Clean(filepath.ToSlash(p))] = true
	}
	return r
}

func (r *MemoryResolver) ResolveModule(specifier, containingFile string) (string, bool) {
	if !IsRelative(specifier) && !strings.HasPrefix(specifier, "/") {
		target, ok := r.Packages[specifier]
		return target, ok
	}
	base := specifier
	if !strings.HasPrefix(base, "/") {
		base = path.Join(path.Dir(filepath.ToSlash(containingFile)), specifier)
	}
	candidates := []string{base}
	for _, ext := range append(append([]string(nil), sourceExtensions...), typingExtensions...) {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range append(append([]string(nil), sourceExtensions...), typingExtensions...) {
		candidates = append(candidates, path.Join(base, "index"+ext))
	}
	for _, c := range candidates {
		if r.paths[c] {
			return c, true
		}
	}
	return "", false
}
