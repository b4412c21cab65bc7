// Package discovery locates the repository root and the package
// directories beneath it.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/macropower/depfence/api"
)

var (
	// DefaultRoots are searched when no roots are configured.
	DefaultRoots = []string{"packages", "app"}

	// RootMarkers identify a repository root, in order of precedence.
	RootMarkers = []string{"pnpm-workspace.yaml", "package.json"}

	// skipDirs are never descended into.
	skipDirs = map[string]bool{
		"node_modules": true,
		"dist":         true,
		"build":        true,
		"out":          true,
		"coverage":     true,
	}
)

// FindRepoRoot returns the repository root for start. The nearest ancestor
// (inclusive) containing pnpm-workspace.yaml wins; otherwise the nearest one
// containing a package.json. Without either, start itself is returned.
func FindRepoRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	for _, name := range RootMarkers {
		marker, err := api.FindConfigFile(abs, []string{name})
		if err != nil {
			return "", fmt.Errorf("find repo root: %w", err)
		}
		if marker != "" {
			return filepath.Dir(marker), nil
		}
	}

	return abs, nil
}

// Find returns every directory containing a package.json under the given
// roots, resolved against repoRoot. Each root is included when it is a
// package itself, then its descendants are walked in lexical order.
// Hidden directories and build output are skipped. Missing roots are
// ignored. The result contains no duplicates.
func Find(repoRoot string, roots ...string) ([]string, error) {
	if len(roots) == 0 {
		roots = DefaultRoots
	}

	seen := map[string]bool{}
	dirs := []string{}

	add := func(dir string) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = filepath.Clean(dir)
		}
		if seen[abs] {
			return
		}

		seen[abs] = true
		dirs = append(dirs, abs)
	}

	for _, root := range roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(repoRoot, root)
		}

		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			slog.Debug("skip package root", slog.String("root", root))

			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}

				slog.Debug("skip unreadable directory",
					slog.String("path", path),
					slog.Any("error", err),
				)

				return fs.SkipDir
			}

			if !d.IsDir() {
				return nil
			}

			if path != root && IgnoredDir(d.Name()) {
				return fs.SkipDir
			}

			if isPackage(path) {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	return dirs, nil
}

// IgnoredDir reports whether a directory with the given base name is
// excluded from discovery.
func IgnoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || skipDirs[name]
}

func isPackage(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "package.json"))

	return err == nil && info.Mode().IsRegular()
}
