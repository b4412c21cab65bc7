package manifest

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
)

var (
	// TsupConfigFiles are the per-package bundler config names, in lookup order.
	TsupConfigFiles = []string{
		"tsup.config.ts",
		"tsup.config.mts",
		"tsup.config.mjs",
		"tsup.config.js",
		"tsup.config.cjs",
	}

	// TsupBaseConfigFiles are the repo-wide bundler config names.
	TsupBaseConfigFiles = []string{
		"tsup.base.config.ts",
		"tsup.base.config.mjs",
		"tsup.base.config.js",
	}

	externalRe     = regexp.MustCompile(`(?s)external\s*:\s*\[(.*?)\]`)
	singleQuotedRe = regexp.MustCompile(`'([^']+)'`)
	doubleQuotedRe = regexp.MustCompile(`"([^"]+)"`)
)

// ParseExternals extracts the quoted strings of the first "external: [...]"
// array in a bundler config source. This is a textual heuristic; the config
// is never evaluated.
func ParseExternals(src string) []string {
	m := externalRe.FindStringSubmatch(src)
	if m == nil {
		return nil
	}

	out := []string{}
	for _, re := range []*regexp.Regexp{singleQuotedRe, doubleQuotedRe} {
		for _, q := range re.FindAllStringSubmatch(m[1], -1) {
			out = appendUnique(out, q[1])
		}
	}

	return out
}

// HasTsupConfig reports whether dir contains one of [TsupConfigFiles].
func HasTsupConfig(dir string) bool {
	return len(existing(dir, TsupConfigFiles)) > 0
}

// DefaultExternals returns the externals of the first repo-wide bundler
// base config found in root.
func DefaultExternals(root string) []string {
	files := existing(root, TsupBaseConfigFiles)
	if len(files) == 0 {
		return nil
	}

	return parseExternalsFile(files[0])
}

// Externals resolves the externals of the package in dir: defaults, then
// every tsup config file in dir, then the "tsup.external" field of m.
// Duplicates keep their first position.
func Externals(dir string, m *Manifest, defaults []string) []string {
	out := []string{}
	for _, e := range defaults {
		out = appendUnique(out, e)
	}

	for _, f := range existing(dir, TsupConfigFiles) {
		for _, e := range parseExternalsFile(f) {
			out = appendUnique(out, e)
		}
	}

	if m != nil {
		for _, e := range m.TsupExternal {
			out = appendUnique(out, e)
		}
	}

	return out
}

func parseExternalsFile(path string) []string {
	src, err := os.ReadFile(path) //nolint:gosec // G304: Fixed config file names.
	if err != nil {
		return nil
	}

	return ParseExternals(string(src))
}

func existing(dir string, names []string) []string {
	out := []string{}
	for _, name := range names {
		p := filepath.Join(dir, name)

		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			out = append(out, p)
		}
	}

	return out
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}

	return append(s, v)
}
