package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/manifest"
	"github.com/macropower/depfence/pkg/rule"
)

var distDtsRe = regexp.MustCompile(`(^\.?/?dist/).*\.d\.ts$`)

// exportTargetFields are the export conditions checked for existence.
var exportTargetFields = []string{"import", "default", "require", "types"}

func bulleted(items []string) string {
	return "- " + strings.Join(items, "\n- ")
}

type packageExportsGuard struct{}

func (packageExportsGuard) Description() string {
	return "constrain export conditions (options: subpathPattern, forbidFields, requireFields)"
}

func (packageExportsGuard) Run(ctx *rule.Context) []finding.Finding {
	re := optionRegexp(ctx, PackageExportsGuard, "subpathPattern")
	if re == nil {
		return nil
	}

	forbid := ctx.Options.Strings("forbidFields")
	require := ctx.Options.Strings("requireFields")

	issues := []string{}
	for _, e := range ctx.Meta.Manifest.Exports() {
		if !re.MatchString(e.Subpath) {
			continue
		}

		for _, f := range forbid {
			if e.Conditions.Has(f) {
				issues = append(issues, fmt.Sprintf("%s: forbid field '%s'", e.Subpath, f))
			}
		}

		for _, f := range require {
			if !e.Conditions.Has(f) {
				issues = append(issues, fmt.Sprintf("%s: missing required field '%s'", e.Subpath, f))
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}

	return one(ctx, PackageExportsGuard, finding.Error, bulleted(issues))
}

type packageTypesDist struct{}

func (packageTypesDist) Description() string {
	return "types of listed entries must point at dist/*.d.ts (option: requireDistForEntries)"
}

func (packageTypesDist) Run(ctx *rule.Context) []finding.Finding {
	entries := ctx.Options.Strings("requireDistForEntries")
	if len(entries) == 0 {
		return nil
	}

	exports := ctx.Meta.Manifest.Exports()
	typesOf := func(subpath string) string {
		i := slices.IndexFunc(exports, func(e manifest.ExportEntry) bool { return e.Subpath == subpath })
		if i < 0 {
			return ""
		}

		s, _ := exports[i].Conditions.String("types")

		return s
	}

	problems := []string{}
	for _, e := range entries {
		if e == "." && !distDtsRe.MatchString(ctx.Meta.Manifest.Types) {
			problems = append(problems, "package.json types must point to dist/*.d.ts")
		}

		if !distDtsRe.MatchString(typesOf(e)) {
			problems = append(problems, fmt.Sprintf("exports[%q].types must point to dist/*.d.ts", e))
		}
	}

	if len(problems) == 0 {
		return nil
	}

	return one(ctx, PackageTypesDist, finding.Error, bulleted(problems))
}

type packageExportsExist struct{}

func (packageExportsExist) Description() string {
	return "main, module and export targets must exist on disk"
}

func (packageExportsExist) Run(ctx *rule.Context) []finding.Finding {
	m := ctx.Meta.Manifest

	targets := []string{m.Main, m.Module}
	for _, e := range m.Exports() {
		for _, f := range exportTargetFields {
			if s, ok := e.Conditions.String(f); ok {
				targets = append(targets, s)
			}
		}
	}

	missing := []string{}
	for _, t := range targets {
		if t == "" || slices.Contains(missing, t) {
			continue
		}

		_, err := os.Stat(filepath.Join(ctx.Meta.Dir, filepath.FromSlash(t)))
		if err != nil {
			missing = append(missing, t)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return one(ctx, PackageExportsExist, finding.Error,
		"package.json main/module/exports points to non-existent files:"+list(missing))
}
