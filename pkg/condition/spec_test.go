package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/condition"
	"github.com/macropower/depfence/pkg/yaml"
)

func TestSpec_Build(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		spec    *condition.Spec
		meta    *attrs.PackageMeta
		want    condition.Result
		wantErr bool
	}{
		"nil spec matches everything": {
			meta: meta(),
			want: condition.Result{Matched: true},
		},
		"has": {
			spec: &condition.Spec{Has: attrs.UsesTsup},
			meta: meta(attrs.UsesTsup),
			want: condition.Result{Matched: true, Justification: "packages with attribute 'usesTsup'"},
		},
		"empty all": {
			spec: &condition.Spec{All: []*condition.Spec{}},
			meta: meta(),
			want: condition.Result{Matched: true},
		},
		"empty any": {
			spec: &condition.Spec{Any: []*condition.Spec{}},
			meta: meta(attrs.UI),
			want: condition.Result{Matched: false},
		},
		"nested": {
			spec: &condition.Spec{All: []*condition.Spec{
				{Has: attrs.UI},
				{Not: &condition.Spec{Has: attrs.Private}},
			}},
			meta: meta(attrs.UI, attrs.Publishable),
			want: condition.Result{
				Matched:       true,
				Justification: "packages with attribute 'ui' & not (packages with attribute 'private')",
			},
		},
		"cel": {
			spec: &condition.Spec{CEL: `"worker" in attrs`},
			meta: meta(attrs.Worker),
			want: condition.Result{Matched: true, Justification: `packages matching '"worker" in attrs'`},
		},
		"nothing set": {
			spec:    &condition.Spec{},
			wantErr: true,
		},
		"two fields set": {
			spec:    &condition.Spec{Has: attrs.UI, CEL: "true"},
			wantErr: true,
		},
		"nested error": {
			spec:    &condition.Spec{Any: []*condition.Spec{{Has: attrs.UI}, nil}},
			wantErr: true,
		},
		"bad cel": {
			spec:    &condition.Spec{Not: &condition.Spec{CEL: "1 +"}},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := tc.spec.Build()
			if tc.wantErr {
				require.ErrorIs(t, err, condition.ErrInvalidCondition)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Evaluate(tc.meta))
		})
	}
}

func TestSpec_YAML(t *testing.T) {
	t.Parallel()

	var spec condition.Spec

	err := yaml.Unmarshal([]byte(`
any:
  - has: publishable
  - all:
      - has: ui
      - not:
          cel: '"private" in attrs'
`), &spec)
	require.NoError(t, err)

	c, err := spec.Build()
	require.NoError(t, err)

	got := c.Evaluate(meta(attrs.UI, attrs.Private))
	assert.False(t, got.Matched)

	got = c.Evaluate(meta(attrs.Publishable))
	assert.True(t, got.Matched)
	assert.Equal(t, "packages with attribute 'publishable'", got.Justification)

	assert.Equal(t, []string{"publishable", "ui"}, spec.Tags())
}
