package rules

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

var (
	namedImportRe = regexp.MustCompile(`import\s+(?:type\s+)?(?:[^'"{]*\{\s*([^}]*)\s*\}[^'"}]*)?\s*from\s*['"]([^'"\n]+)['"];?`)
	aliasRe       = regexp.MustCompile(`(?i)\s+as\s+`)
	tsSourceRe    = regexp.MustCompile(`\.tsx?$`)
)

// NamedImport is one `import { a, b } from "m"` statement.
type NamedImport struct {
	From  string
	Names []string
}

// CollectNamedImports returns the named imports in TypeScript source src.
// Aliases are reduced to the imported name, and statements without braces
// are skipped.
func CollectNamedImports(src string) []NamedImport {
	out := []NamedImport{}

	for _, m := range namedImportRe.FindAllStringSubmatch(src, -1) {
		group := strings.TrimSpace(m[1])
		if group == "" {
			continue
		}

		names := []string{}
		for part := range strings.SplitSeq(group, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			names = append(names, strings.TrimSpace(aliasRe.Split(part, 2)[0]))
		}

		out = append(out, NamedImport{From: m[2], Names: names})
	}

	return out
}

type sourceImportBan struct{}

func (sourceImportBan) Description() string {
	return "ban named imports from modules in src (options: from, names)"
}

func (sourceImportBan) Run(ctx *rule.Context) []finding.Finding {
	from := ctx.Options.Strings("from")
	names := ctx.Options.Strings("names")

	if len(from) == 0 || len(names) == 0 {
		return nil
	}

	offenders := []string{}
	srcDir := filepath.Join(ctx.Meta.Dir, "src")

	_ = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // Unreadable entries are skipped.
		}
		if d.IsDir() || !tsSourceRe.MatchString(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(path) //nolint:gosec // G304: Walking the package's own sources.
		if err != nil {
			return nil //nolint:nilerr // Unreadable files are skipped.
		}

		rel, err := filepath.Rel(ctx.Meta.Dir, path)
		if err != nil {
			rel = path
		}

		for _, imp := range CollectNamedImports(string(data)) {
			if !slices.Contains(from, imp.From) {
				continue
			}

			hits := []string{}
			for _, n := range imp.Names {
				if slices.Contains(names, n) {
					hits = append(hits, n)
				}
			}

			if len(hits) > 0 {
				offenders = append(offenders, filepath.ToSlash(rel)+": "+strings.Join(hits, ", "))
			}
		}

		return nil
	})

	if len(offenders) == 0 {
		return nil
	}

	return one(ctx, SourceImportBan, finding.Error,
		"banned named imports detected from "+strings.Join(from, ", ")+":"+list(offenders))
}
