package engine

import (
	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

// Opt configures an [Engine].
type Opt func(*Engine)

// WithRegistry sets the rule registry. It defaults to the built-in rules.
func WithRegistry(r *rule.Registry) Opt {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithRepoRoot sets the directory package roots are resolved against.
func WithRepoRoot(dir string) Opt {
	return func(e *Engine) {
		e.repoRoot = dir
	}
}

// WithRoots sets the directories searched for packages. See
// [discovery.DefaultRoots].
func WithRoots(roots ...string) Opt {
	return func(e *Engine) {
		e.roots = roots
	}
}

// WithDefaultExternals sets the repo-wide bundler externals instead of
// reading them from the repo root's tsup base config.
func WithDefaultExternals(externals ...string) Opt {
	return func(e *Engine) {
		e.defaultExternals = externals
		e.externalsSet = true
	}
}

// WithOnlyRules keeps only findings whose rule, or the rule reference that
// produced them, is one of names.
func WithOnlyRules(names ...string) Opt {
	return func(e *Engine) {
		e.only = toSet(names)
	}
}

// WithSkipRules drops findings whose rule, or the rule reference that
// produced them, is one of names. Skipped references are not run.
func WithSkipRules(names ...string) Opt {
	return func(e *Engine) {
		e.skip = toSet(names)
	}
}

// WithRequireAttrs evaluates only packages carrying every tag.
func WithRequireAttrs(tags ...string) Opt {
	return func(e *Engine) {
		e.requireAttrs = tags
	}
}

// WithAllowlist downgrades matching findings to info.
func WithAllowlist(a finding.Allowlist) Opt {
	return func(e *Engine) {
		e.allowlist = a
	}
}

// WithAllowSkipLibCheck names packages allowed to enable skipLibCheck.
func WithAllowSkipLibCheck(names ...string) Opt {
	return func(e *Engine) {
		e.allowSkipLibCheck = attrs.NewNameSet(names...)
	}
}

func toSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}

	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}

	return s
}
