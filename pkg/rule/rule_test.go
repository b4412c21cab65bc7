package rule_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/manifest"
	"github.com/macropower/depfence/pkg/rule"
)

func newContext(t *testing.T, pkgJSON string) *rule.Context {
	t.Helper()

	m, err := manifest.Parse([]byte(pkgJSON))
	require.NoError(t, err)

	meta := attrs.Build(t.TempDir(), m, nil)

	return &rule.Context{
		Meta:        meta,
		Manifest:    m,
		PackageName: meta.Name,
		PackageDir:  meta.Dir,
		Because:     "packages with attribute 'publishable'",
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := rule.NewRegistry()
	noop := rule.RunnerFunc(func(*rule.Context) []finding.Finding { return nil })

	reg.Register("tsconfig-no-base", noop)
	reg.Register("peer-in-external", noop)
	reg.Register("external-in-deps", noop)

	assert.Equal(t, []string{"external-in-deps", "peer-in-external", "tsconfig-no-base"}, reg.Names())

	_, ok := reg.Lookup("peer-in-external")
	assert.True(t, ok)

	_, ok = reg.Lookup("peer-in-externals")
	assert.False(t, ok)

	assert.Equal(t, "peer-in-external", reg.Suggest("peer-external"))
	assert.Empty(t, reg.Suggest("zzzz"))
	assert.Empty(t, reg.Describe("peer-in-external"))
}

type described struct{ rule.RunnerFunc }

func (described) Description() string { return "checks things" }

func TestRegistry_Describe(t *testing.T) {
	t.Parallel()

	reg := rule.NewRegistry()
	reg.Register("x", described{})

	assert.Equal(t, "checks things", reg.Describe("x"))
	assert.Empty(t, reg.Describe("missing"))
}

func TestContext_Finding(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, `{"name": "@acme/core"}`)
	f := ctx.Finding("local-shims", finding.Warn, "msg")

	assert.Equal(t, finding.Finding{
		PackageName: "@acme/core",
		PackageDir:  ctx.PackageDir,
		Rule:        "local-shims",
		Severity:    finding.Warn,
		Message:     "msg",
		Because:     "packages with attribute 'publishable'",
	}, f)
}

func TestOptions_Decode(t *testing.T) {
	t.Parallel()

	var opts struct {
		Severity finding.Severity `json:"severity"`
		From     []string         `json:"from"`
		Forbid   bool             `json:"forbidInDeps"`
	}

	err := rule.Options{
		"from":         []any{"react", "react-dom"},
		"forbidInDeps": true,
		"severity":     "ERROR",
		"ignored":      1,
	}.Decode(&opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"react", "react-dom"}, opts.From)
	assert.True(t, opts.Forbid)
	assert.Equal(t, finding.Error, opts.Severity)

	require.NoError(t, rule.Options(nil).Decode(&opts))
	require.Error(t, rule.Options{"severity": "fatal"}.Decode(&opts))
}

func TestCustom_Invoke(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		custom     *rule.Custom
		want       []finding.Finding
		wantFailed bool
	}{
		"findings attributed to id": {
			custom: &rule.Custom{
				ID: "require-repo-field",
				Run: func(ctx *rule.Context) ([]finding.Finding, error) {
					return []finding.Finding{
						ctx.Finding("", finding.Warn, `package.json should include a "repository" field`),
						ctx.Finding("explicit", finding.Info, "kept"),
					}, nil
				},
			},
			want: []finding.Finding{
				{Rule: "require-repo-field", Severity: finding.Warn, Message: `package.json should include a "repository" field`},
				{Rule: "explicit", Severity: finding.Info, Message: "kept"},
			},
		},
		"error": {
			custom: &rule.Custom{
				ID: "boom",
				Run: func(*rule.Context) ([]finding.Finding, error) {
					return []finding.Finding{{Rule: "ignored"}}, errors.New("disk on fire")
				},
			},
			want: []finding.Finding{
				{Rule: rule.FailedRuleName, Severity: finding.Error, Message: "custom rule boom failed: disk on fire"},
			},
			wantFailed: true,
		},
		"panic": {
			custom: &rule.Custom{
				Run: func(*rule.Context) ([]finding.Finding, error) {
					panic("nil map")
				},
			},
			want: []finding.Finding{
				{Rule: rule.FailedRuleName, Severity: finding.Error, Message: "custom rule custom failed: panic: nil map"},
			},
			wantFailed: true,
		},
		"no run function": {
			custom: &rule.Custom{ID: "empty"},
			want: []finding.Finding{
				{Rule: rule.FailedRuleName, Severity: finding.Error, Message: "custom rule empty failed: no run function"},
			},
			wantFailed: true,
		},
		"no findings": {
			custom: &rule.Custom{
				ID:  "quiet",
				Run: func(*rule.Context) ([]finding.Finding, error) { return nil, nil },
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := newContext(t, `{"name": "@acme/core"}`)

			got, failed := tc.custom.Invoke(ctx)
			assert.Equal(t, tc.wantFailed, failed)
			require.Len(t, got, len(tc.want))

			for i, want := range tc.want {
				assert.Equal(t, want.Rule, got[i].Rule)
				assert.Equal(t, want.Severity, got[i].Severity)
				assert.Equal(t, want.Message, got[i].Message)
				assert.Equal(t, "@acme/core", got[i].PackageName)
				assert.Equal(t, ctx.Because, got[i].Because)
			}
		})
	}
}

func TestOptions_Strings(t *testing.T) {
	t.Parallel()

	opts := rule.Options{
		"one":   "react",
		"many":  []any{"react", 3, "react-dom"},
		"typed": []string{"a"},
		"bad":   true,
	}

	assert.Equal(t, []string{"react"}, opts.Strings("one"))
	assert.Equal(t, []string{"react", "react-dom"}, opts.Strings("many"))
	assert.Equal(t, []string{"a"}, opts.Strings("typed"))
	assert.Nil(t, opts.Strings("bad"))
	assert.Nil(t, opts.Strings("missing"))
}
