package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/depfence/pkg/watch"
)

func TestRelevant(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		path string
		want bool
	}{
		"manifest":        {path: "packages/a/package.json", want: true},
		"tsconfig":        {path: "packages/a/tsconfig.json", want: true},
		"tsconfig build":  {path: "packages/a/tsconfig.build.json", want: true},
		"tsup config":     {path: "packages/a/tsup.config.mts", want: true},
		"tsup base":       {path: "tsup.base.config.ts", want: true},
		"policy set":      {path: "depfence.yaml", want: true},
		"legacy config":   {path: "dep-fence.config.json", want: true},
		"source":          {path: "packages/a/src/index.tsx", want: true},
		"module source":   {path: "packages/a/src/index.mjs", want: true},
		"readme":          {path: "packages/a/README.md", want: false},
		"other json":      {path: "packages/a/data.json", want: false},
		"stylesheet":      {path: "packages/a/src/app.css", want: false},
		"lockfile":        {path: "pnpm-lock.yaml", want: false},
		"editor swapfile": {path: "packages/a/src/.index.ts.swp", want: false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, watch.Relevant(tc.path))
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), "{}")
	writeFile(t, filepath.Join(root, "packages", "a", "package.json"), "{}")
	writeFile(t, filepath.Join(root, "packages", "a", "src", "index.ts"), "")
	writeFile(t, filepath.Join(root, "packages", "a", "node_modules", "x", "package.json"), "{}")

	w, err := watch.New(root, watch.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, w.Close()) })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls <- struct{}{}
			return nil
		})
	}()

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	dirs := w.Dirs()
	assert.Contains(t, dirs, filepath.Join(root, "packages", "a", "src"))
	assert.NotContains(t, dirs, filepath.Join(root, "packages", "a", "node_modules"))

	// Irrelevant files are ignored.
	writeFile(t, filepath.Join(root, "packages", "a", "README.md"), "hi")
	assert.Never(t, func() bool { return len(calls) > 0 }, 200*time.Millisecond, 10*time.Millisecond)

	// A burst of relevant writes collapses into one run.
	for range 3 {
		writeFile(t, filepath.Join(root, "packages", "a", "src", "index.ts"), "import 'x'")
	}

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a run")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_AlreadyRunning(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	w, err := watch.New(root)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, w.Close()) })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	started := make(chan struct{})
	go func() {
		_ = w.Run(ctx, func(context.Context) error {
			close(started)
			return nil
		})
	}()
	<-started

	err = w.Run(ctx, func(context.Context) error { return nil })
	require.ErrorIs(t, err, watch.ErrAlreadyRunning)
}
