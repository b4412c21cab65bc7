package manifest_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/depfence/pkg/manifest"
)

func TestParseExternals(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		src  string
		want []string
	}{
		"no externals": {
			src: `export default defineConfig({ entry: ['src/index.ts'] })`,
		},
		"mixed quotes keep singles first": {
			src: `export default defineConfig({
  entry: ["src/index.ts"],
  external: [
    "react-dom",
    'react',
    "@mui/material", 'react',
  ],
})`,
			want: []string{"react", "react-dom", "@mui/material"},
		},
		"only first array": {
			src:  `external: ['a'], other: { external: ['b'] }`,
			want: []string{"a"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := manifest.ParseExternals(tc.src)
			if tc.want == nil {
				assert.Empty(t, got)

				return
			}

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExternals(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, filepath.Join(root, "tsup.base.config.ts"), `export const base = { external: ['react'] }`)

	pkg := filepath.Join(root, "packages", "ui")
	write(t, filepath.Join(pkg, "tsup.config.ts"), `export default { external: ['react', 'react-dom'] }`)
	write(t, filepath.Join(pkg, "tsup.config.js"), `module.exports = { external: ["zustand"] }`)

	defaults := manifest.DefaultExternals(root)
	assert.Equal(t, []string{"react"}, defaults)

	m := &manifest.Manifest{TsupExternal: []string{"zustand", "immer"}}
	assert.Equal(t,
		[]string{"react", "react-dom", "zustand", "immer"},
		manifest.Externals(pkg, m, defaults),
	)

	assert.True(t, manifest.HasTsupConfig(pkg))
	assert.False(t, manifest.HasTsupConfig(root))
	assert.Empty(t, manifest.DefaultExternals(pkg))
}
