package rules

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

const (
	defaultBaseConfig = "tsconfig.base.json"
	defaultJSX        = "react-jsx"
)

var directSrcRe = regexp.MustCompile(`\.\./.+/src(/|$)`)

type pathsDirectSrc struct{}

func (pathsDirectSrc) Description() string {
	return "tsconfig paths must not reach into another package's src"
}

func (pathsDirectSrc) Run(ctx *rule.Context) []finding.Finding {
	bad := []string{}
	for _, pm := range ctx.Meta.TSConfig.CompilerOptions.Paths {
		for _, target := range pm.Targets {
			if directSrcRe.MatchString(target) {
				bad = append(bad, pm.Key+" -> "+target)
			}
		}
	}

	if len(bad) == 0 {
		return nil
	}

	return one(ctx, PathsDirectSrc, finding.Warn, "tsconfig paths direct src reference:"+list(bad))
}

// skipLibCheckRule evaluates the skipLibCheck policy and keeps only the
// finding named by emit.
type skipLibCheckRule struct {
	emit string
}

func (r skipLibCheckRule) Description() string {
	if r.emit == SkipLibCheckNoReason {
		return "allowed skipLibCheck must document a reason in checkDeps.reason"
	}

	return "skipLibCheck requires an allowlist entry or checkDeps.allowSkipLibCheck"
}

func (r skipLibCheckRule) Run(ctx *rule.Context) []finding.Finding {
	tc := ctx.Meta.TSConfig
	if !tc.CompilerOptions.SkipLibCheck {
		return nil
	}

	listed := ctx.AllowSkipLibCheck.Has(ctx.PackageName)

	if listed || tc.CheckDeps.AllowSkipLibCheck {
		if r.emit == SkipLibCheckNoReason && tc.CheckDeps.Reason == "" && !listed {
			return one(ctx, SkipLibCheckNoReason, finding.Warn, "skipLibCheck enabled without documented reason.")
		}

		return nil
	}

	if r.emit == SkipLibCheckNotAllowed {
		return one(ctx, SkipLibCheckNotAllowed, finding.Error, "skipLibCheck is enabled but not allowed.")
	}

	return nil
}

type tsconfigNoBase struct{}

func (tsconfigNoBase) Description() string {
	return "tsconfig must extend the repo base config (option: base)"
}

func (tsconfigNoBase) Run(ctx *rule.Context) []finding.Finding {
	base := defaultBaseConfig
	if v := ctx.Options.Strings("base"); len(v) > 0 && v[0] != "" {
		base = v[0]
	}

	ext := strings.Join(ctx.Meta.TSConfig.Extends, ",")
	if strings.Contains(ext, base) {
		return nil
	}

	if ext == "" {
		ext = "(missing)"
	}

	return one(ctx, TSConfigNoBase, finding.Warn,
		fmt.Sprintf("tsconfig does not extend repo base (%s): %s", base, ext))
}

type jsxMismatch struct{}

func (jsxMismatch) Description() string {
	return "packages with .tsx sources must set compilerOptions.jsx (option: jsx)"
}

func (jsxMismatch) Run(ctx *rule.Context) []finding.Finding {
	if !ctx.Meta.Attrs.Has(attrs.HasTsx) {
		return nil
	}

	want := defaultJSX
	if v := ctx.Options.Strings("jsx"); len(v) > 0 && v[0] != "" {
		want = v[0]
	}

	got := ctx.Meta.TSConfig.CompilerOptions.JSX
	if got == want {
		return nil
	}

	if got == "" {
		got = "(unset)"
	}

	return one(ctx, JSXMismatch, finding.Warn,
		fmt.Sprintf("tsx files detected but compilerOptions.jsx is '%s' (recommend '%s').", got, want))
}

type tsconfigPaths struct{}

func (tsconfigPaths) Description() string {
	return "tsconfig paths must not match forbidPattern unless they match allowPattern"
}

func (tsconfigPaths) Run(ctx *rule.Context) []finding.Finding {
	allow := optionRegexp(ctx, TSConfigPaths, "allowPattern")
	forbid := optionRegexp(ctx, TSConfigPaths, "forbidPattern")

	bad := []string{}
	for _, pm := range ctx.Meta.TSConfig.CompilerOptions.Paths {
		for _, target := range pm.Targets {
			if allow != nil && allow.MatchString(target) {
				continue
			}
			if forbid != nil && forbid.MatchString(target) {
				bad = append(bad, pm.Key+" -> "+target+" (forbidden pattern)")
			}
		}
	}

	if len(bad) == 0 {
		return nil
	}

	return one(ctx, TSConfigPaths, finding.Error, "tsconfig paths violation:"+list(bad))
}

// optionRegexp compiles the named string option. Invalid patterns are logged
// and treated as unset.
func optionRegexp(ctx *rule.Context, ruleName, key string) *regexp.Regexp {
	v := ctx.Options.Strings(key)
	if len(v) == 0 || v[0] == "" {
		return nil
	}

	re, err := regexp.Compile(v[0])
	if err != nil {
		slog.Warn("ignore invalid pattern option",
			slog.String("rule", ruleName),
			slog.String("option", key),
			slog.Any("error", err),
		)

		return nil
	}

	return re
}
