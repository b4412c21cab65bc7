package expr_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/traits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/depfence/pkg/expr"
)

func vars(dir string) map[string]any {
	return map[string]any{
		expr.VarName:      "@acme/ui",
		expr.VarDir:       dir,
		expr.VarAttrs:     []string{"publishable", "ui"},
		expr.VarDeps:      []string{"react", "zod"},
		expr.VarPeers:     []string{"react-dom"},
		expr.VarDevs:      []string{"vitest"},
		expr.VarExternals: []string{"react-dom"},
		expr.VarManifest: map[string]any{
			"name":       "@acme/ui",
			"repository": map[string]any{"url": "git+https://example.com/acme.git"},
		},
	}
}

func TestEvalBool(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# ui"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsconfig.json"),
		[]byte(`{"compilerOptions": {"jsx": "react-jsx", "lib": ["dom"]}}`), 0o600))

	env := expr.Default()

	tcs := map[string]struct {
		expression string
		want       bool
	}{
		"attr membership": {
			expression: `"ui" in attrs && !("private" in attrs)`,
			want:       true,
		},
		"deps exists": {
			expression: `deps.exists(d, d.startsWith("re"))`,
			want:       true,
		},
		"manifest field": {
			expression: `has(manifest.repository) && manifest.repository.url.contains("acme")`,
			want:       true,
		},
		"missing manifest field": {
			expression: `has(manifest.license)`,
			want:       false,
		},
		"peers not external": {
			expression: `peers.all(p, p in externals)`,
			want:       true,
		},
		"path helpers": {
			expression: `pathBase(dir) == pathBase(pathJoin(pathDir(dir), pathBase(dir))) && pathExt("a/b.tsx") == ".tsx"`,
			want:       true,
		},
		"file exists": {
			expression: `fileExists(pathJoin(dir, "README.md")) && !fileExists(pathJoin(dir, "CHANGELOG.md")) && !fileExists(dir)`,
			want:       true,
		},
		"yaml path on json": {
			expression: `yamlPath(pathJoin(dir, "tsconfig.json"), "$.compilerOptions.jsx") == "react-jsx"`,
			want:       true,
		},
		"yaml path missing is null": {
			expression: `yamlPath(pathJoin(dir, "nope.json"), "$.a") == null`,
			want:       true,
		},
		"string extension": {
			expression: `name.split("/")[1] == "ui"`,
			want:       true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			program, err := env.Compile(tc.expression)
			require.NoError(t, err)

			got, err := expr.EvalBool(program, vars(dir))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvalBool_Errors(t *testing.T) {
	t.Parallel()

	env := expr.Default()

	_, err := env.Compile(`unknownVar == 1`)
	require.ErrorContains(t, err, "compile expression")

	program, err := env.Compile(`name`)
	require.NoError(t, err)

	_, err = expr.EvalBool(program, vars(""))
	require.ErrorIs(t, err, expr.ErrResultType)

	program, err = env.Compile(`manifest.missing == "x"`)
	require.NoError(t, err)

	_, err = expr.EvalBool(program, vars(""))
	require.ErrorContains(t, err, "evaluate expression")
}

func TestAsStrings(t *testing.T) {
	t.Parallel()

	program, err := expr.Default().Compile(`deps.filter(d, !(d in peers)).map(d, "dep:" + d)`)
	require.NoError(t, err)

	out, err := expr.Eval(program, vars(""))
	require.NoError(t, err)

	got, err := expr.AsStrings(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"dep:react", "dep:zod"}, got)

	_, err = expr.AsStrings(types.Bool(true))
	require.ErrorIs(t, err, expr.ErrResultType)
}

func TestConvertToCELValue(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input any
		want  any
	}{
		"nil":     {input: nil, want: types.NullValue},
		"bool":    {input: true, want: types.Bool(true)},
		"int":     {input: 3, want: types.Int(3)},
		"uint64":  {input: uint64(7), want: types.Int(7)},
		"float":   {input: 1.5, want: types.Double(1.5)},
		"string":  {input: "x", want: types.String("x")},
		"unknown": {input: struct{}{}, want: types.NullValue},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, expr.ConvertToCELValue(tc.input))
		})
	}

	list := expr.ConvertToCELValue([]any{"a", 1})
	sizer, ok := list.(traits.Sizer)
	require.True(t, ok)
	assert.Equal(t, types.Int(2), sizer.Size())
}
