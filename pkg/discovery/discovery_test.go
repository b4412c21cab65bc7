package discovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/depfence/pkg/discovery"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()

	for _, r := range rel {
		p := filepath.Join(root, r)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o600))
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root,
		"package.json",
		"packages/b/package.json",
		"packages/a/package.json",
		"packages/a/nested/package.json",
		"packages/a/node_modules/dep/package.json",
		"packages/a/dist/package.json",
		"packages/.cache/package.json",
		"packages/c/src/index.ts",
		"app/package.json",
		"tools/x/package.json",
	)

	rel := func(dirs []string) []string {
		out := []string{}
		for _, d := range dirs {
			r, err := filepath.Rel(root, d)
			require.NoError(t, err)
			out = append(out, filepath.ToSlash(r))
		}

		return out
	}

	tcs := map[string]struct {
		roots []string
		want  []string
	}{
		"default roots": {
			want: []string{"packages/a", "packages/a/nested", "packages/b", "app"},
		},
		"custom roots with overlap": {
			roots: []string{"tools", "packages/a", "packages"},
			want:  []string{"tools/x", "packages/a", "packages/a/nested", "packages/b"},
		},
		"missing root is skipped": {
			roots: []string{"nope", "app"},
			want:  []string{"app"},
		},
		"absolute root": {
			roots: []string{filepath.Join(root, "tools")},
			want:  []string{"tools/x"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := discovery.Find(root, tc.roots...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, rel(got))
		})
	}
}

func TestFind_Idempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "packages/z/package.json", "packages/m/package.json")

	first, err := discovery.Find(root)
	require.NoError(t, err)

	second, err := discovery.Find(root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFindRepoRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "pnpm-workspace.yaml", "packages/ui/src/x.ts")

	got, err := discovery.FindRepoRoot(filepath.Join(root, "packages", "ui", "src"))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestFindRepoRoot_PrefersWorkspace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "pnpm-workspace.yaml", "package.json", "packages/ui/package.json")

	got, err := discovery.FindRepoRoot(filepath.Join(root, "packages", "ui"))
	require.NoError(t, err)
	assert.Equal(t, root, got)

	// Without a workspace file, the nearest package.json wins.
	other := t.TempDir()
	touch(t, other, "package.json", "packages/ui/package.json")

	got, err = discovery.FindRepoRoot(filepath.Join(other, "packages", "ui"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(other, "packages", "ui"), got)
}
