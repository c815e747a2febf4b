package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// SlashPath cleans a path and converts it to forward slashes so it can be
// matched against glob patterns. "." becomes the empty string.
func SlashPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// RelSlash returns target relative to base in slash form, or the slash form
// of target itself when it does not live under base.
func RelSlash(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return SlashPath(filepath.ToSlash(target))
	}
	return SlashPath(filepath.ToSlash(rel))
}

// HasPathPrefix returns true when p equals prefix or is contained within it.
func HasPathPrefix(p, prefix string) bool {
	p = SlashPath(p)
	prefix = SlashPath(prefix)
	if p == "" || prefix == "" {
		return p == prefix
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func SortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileAtomic creates parent directories and replaces path through a
// temporary sibling so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
