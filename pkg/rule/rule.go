package rule

import (
	"fmt"

	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/manifest"
	"github.com/macropower/depfence/pkg/yaml"
)

// Context is everything a check may read about the package under test.
type Context struct {
	Meta     *attrs.PackageMeta
	Manifest *manifest.Manifest
	// Options holds the policy's options for this rule. Custom checks
	// always receive nil.
	Options Options
	// AllowSkipLibCheck names packages allowed to enable skipLibCheck.
	AllowSkipLibCheck attrs.NameSet
	PackageName       string
	PackageDir        string
	// Because is the justification of the policy that matched.
	Because          string
	DefaultExternals []string
}

// Finding returns a finding for the package in c.
func (c *Context) Finding(rule string, sev finding.Severity, message string) finding.Finding {
	return finding.Finding{
		PackageName: c.PackageName,
		PackageDir:  c.PackageDir,
		Rule:        rule,
		Severity:    sev,
		Message:     message,
		Because:     c.Because,
	}
}

// Runner is a named check.
type Runner interface {
	Run(ctx *Context) []finding.Finding
}

// RunnerFunc adapts a function to a [Runner].
type RunnerFunc func(ctx *Context) []finding.Finding

func (f RunnerFunc) Run(ctx *Context) []finding.Finding {
	return f(ctx)
}

// Describer is implemented by runners that can describe themselves.
type Describer interface {
	Description() string
}

// Options are the free-form, per-rule options of a policy.
type Options map[string]any

// Strings returns the option key as a list of strings. A single string is
// treated as a one-element list, and non-string items are dropped.
func (o Options) Strings(key string) []string {
	switch v := o[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	}

	return nil
}

// Decode copies o into v, which should be a pointer to a struct with json
// tags. Keys not present in v are ignored.
func (o Options) Decode(v any) error {
	if len(o) == 0 {
		return nil
	}

	b, err := yaml.Marshal(map[string]any(o))
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	err = yaml.Unmarshal(b, v)
	if err != nil {
		return fmt.Errorf("decode options: %w", err)
	}

	return nil
}
