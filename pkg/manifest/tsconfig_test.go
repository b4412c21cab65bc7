package manifest_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/depfence/pkg/manifest"
)

func TestParseTSConfig(t *testing.T) {
	t.Parallel()

	tc := manifest.ParseTSConfig([]byte(`{
		"extends": "../../tsconfig.base.json",
		"compilerOptions": {
			"jsx": "react-jsx",
			"lib": ["ES2022", "DOM"],
			"skipLibCheck": true,
			"paths": {
				"@acme/core": ["../core/src"],
				"@acme/*": ["../*/dist", 3]
			}
		},
		"checkDeps": {"allowSkipLibCheck": true, "reason": "upstream types broken"}
	}`))

	assert.Equal(t, []string{"../../tsconfig.base.json"}, tc.Extends)
	assert.Equal(t, "react-jsx", tc.CompilerOptions.JSX)
	assert.Equal(t, []string{"ES2022", "DOM"}, tc.CompilerOptions.Lib)
	assert.True(t, tc.CompilerOptions.SkipLibCheck)
	assert.Equal(t, []manifest.PathMapping{
		{Key: "@acme/core", Targets: []string{"../core/src"}},
		{Key: "@acme/*", Targets: []string{"../*/dist"}},
	}, tc.CompilerOptions.Paths)
	assert.True(t, tc.CheckDeps.AllowSkipLibCheck)
	assert.Equal(t, "upstream types broken", tc.CheckDeps.Reason)
}

func TestParseTSConfig_Lenient(t *testing.T) {
	t.Parallel()

	assert.Equal(t, &manifest.TSConfig{}, manifest.ParseTSConfig([]byte(`{ // comment
	}`)))

	tc := manifest.ParseTSConfig([]byte(`{"extends": ["a.json", "b/tsconfig.base.json"]}`))
	assert.Equal(t, []string{"a.json", "b/tsconfig.base.json"}, tc.Extends)
}

func TestLoadTSConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.Equal(t, &manifest.TSConfig{}, manifest.LoadTSConfig(dir))

	write(t, filepath.Join(dir, "tsconfig.json"), `{"compilerOptions": {"jsx": "preserve"}}`)
	assert.Equal(t, "preserve", manifest.LoadTSConfig(dir).CompilerOptions.JSX)
}
