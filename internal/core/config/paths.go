package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	StateDir    string
	Roots       []string
	JSONReport  string
	SQLitePath  string
}

// ResolvePaths anchors every relative path of cfg at the project root, which
// is either configured or detected from cwd.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := strings.TrimSpace(cfg.Paths.ProjectRoot)
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		root, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	resolved := ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		StateDir:    ResolveRelative(projectRoot, cfg.Paths.StateDir),
	}
	for _, root := range cfg.Entrypoints.Roots {
		resolved.Roots = append(resolved.Roots, ResolveRelative(projectRoot, root))
	}
	if cfg.Report.JSON != "" {
		resolved.JSONReport = ResolveRelative(projectRoot, cfg.Report.JSON)
	}
	if cfg.Report.SQLite != "" {
		resolved.SQLitePath = ResolveRelative(resolved.StateDir, cfg.Report.SQLite)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFile,
		"package.json",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
