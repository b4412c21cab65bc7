package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/condition"
	"github.com/macropower/depfence/pkg/manifest"
)

func meta(tags ...string) *attrs.PackageMeta {
	return &attrs.PackageMeta{
		Name:     "@acme/pkg",
		Dir:      "/repo/packages/pkg",
		Manifest: &manifest.Manifest{},
		Attrs:    attrs.NewSet(tags...),
	}
}

func fixed(matched bool, justification string) condition.Condition {
	return condition.Func(func(*attrs.PackageMeta) condition.Result {
		return condition.Result{Matched: matched, Justification: justification}
	})
}

func TestConditions(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cond condition.Condition
		meta *attrs.PackageMeta
		want condition.Result
	}{
		"has match": {
			cond: condition.Has(attrs.UI),
			meta: meta(attrs.UI),
			want: condition.Result{Matched: true, Justification: "packages with attribute 'ui'"},
		},
		"has no match keeps justification": {
			cond: condition.IsPublishable(),
			meta: meta(attrs.Private),
			want: condition.Result{Matched: false, Justification: "packages with attribute 'publishable'"},
		},
		"unknown tag never matches": {
			cond: condition.Has("experimental"),
			meta: meta(attrs.UI, attrs.Publishable),
			want: condition.Result{Matched: false, Justification: "packages with attribute 'experimental'"},
		},
		"not": {
			cond: condition.Not(condition.IsWorker()),
			meta: meta(attrs.Node),
			want: condition.Result{Matched: true, Justification: "not (packages with attribute 'worker')"},
		},
		"not with empty child justification": {
			cond: condition.Not(fixed(true, "")),
			meta: meta(),
			want: condition.Result{Matched: false, Justification: "not (condition)"},
		},
		"all empty matches": {
			cond: condition.All(),
			meta: meta(),
			want: condition.Result{Matched: true, Justification: ""},
		},
		"all joins every child": {
			cond: condition.All(condition.IsUI(), condition.IsPublishable()),
			meta: meta(attrs.UI, attrs.Publishable),
			want: condition.Result{
				Matched:       true,
				Justification: "packages with attribute 'ui' & packages with attribute 'publishable'",
			},
		},
		"all partial does not match but still justifies": {
			cond: condition.All(condition.IsUI(), fixed(false, ""), condition.IsPublishable()),
			meta: meta(attrs.UI),
			want: condition.Result{
				Matched:       false,
				Justification: "packages with attribute 'ui' & packages with attribute 'publishable'",
			},
		},
		"any empty never matches": {
			cond: condition.Any(),
			meta: meta(attrs.UI),
			want: condition.Result{Matched: false, Justification: ""},
		},
		"any single publishable": {
			cond: condition.Any(condition.IsPublishable()),
			meta: meta(attrs.Publishable),
			want: condition.Result{Matched: true, Justification: "packages with attribute 'publishable'"},
		},
		"any only matching children justify": {
			cond: condition.Any(condition.IsWorker(), condition.IsBrowser(), condition.UsesTsup()),
			meta: meta(attrs.Browser, attrs.UsesTsup),
			want: condition.Result{
				Matched:       true,
				Justification: "packages with attribute 'browser' | packages with attribute 'usesTsup'",
			},
		},
		"any no match": {
			cond: condition.Any(condition.HasTsx(), condition.HasSkipLibCheck()),
			meta: meta(attrs.Node),
			want: condition.Result{Matched: false, Justification: ""},
		},
		"nested": {
			cond: condition.All(condition.IsNode(), condition.Not(condition.Any(condition.IsUI()))),
			meta: meta(attrs.Node),
			want: condition.Result{
				Matched:       true,
				Justification: "packages with attribute 'node' & not (condition)",
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.cond.Evaluate(tc.meta))
		})
	}
}

func TestNoShortCircuit(t *testing.T) {
	t.Parallel()

	calls := 0
	counting := func(matched bool) condition.Condition {
		return condition.Func(func(*attrs.PackageMeta) condition.Result {
			calls++

			return condition.Result{Matched: matched}
		})
	}

	condition.All(counting(false), counting(true), counting(false)).Evaluate(meta())
	assert.Equal(t, 3, calls)

	calls = 0

	condition.Any(counting(true), counting(true), counting(false)).Evaluate(meta())
	assert.Equal(t, 3, calls)
}

func TestCEL(t *testing.T) {
	t.Parallel()

	m := meta(attrs.UI, attrs.Publishable)
	m.Deps = attrs.NewNameSet("react")

	tcs := map[string]struct {
		expression string
		want       bool
	}{
		"matches":         {expression: `"ui" in attrs && deps.exists(d, d == "react")`, want: true},
		"no match":        {expression: `name.startsWith("@other/")`, want: false},
		"non-bool result": {expression: `name`, want: false},
		"eval error":      {expression: `manifest.missing == 1`, want: false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := condition.CEL(tc.expression)
			require.NoError(t, err)

			got := c.Evaluate(m)
			assert.Equal(t, tc.want, got.Matched)
			assert.Equal(t, "packages matching '"+tc.expression+"'", got.Justification)
		})
	}

	_, err := condition.CEL(`nope(`)
	require.ErrorIs(t, err, condition.ErrInvalidCondition)
	assert.Panics(t, func() { condition.MustCEL(`nope(`) })
}
