// Package watch re-runs a callback when files that influence lint results
// change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/depfence/pkg/discovery"
	"github.com/macropower/depfence/pkg/log"
)

// DefaultDebounce is the quiet period after the last relevant event before
// the callback runs.
const DefaultDebounce = 200 * time.Millisecond

var (
	ErrAlreadyRunning = errors.New("watcher already running")

	// relevantNames are matched against the base name of changed files.
	relevantNames = []string{
		"package.json",
		"depfence.yaml",
		"depfence.yml",
		"depfence.repo.yaml",
		"dep-fence.config.json",
		"tsup.base.config.ts",
	}

	// relevantExts are source extensions that may carry imports.
	relevantExts = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}
)

// Func is invoked for every (debounced) batch of changes.
type Func func(ctx context.Context) error

// Watcher watches the repository root and the package roots beneath it.
type Watcher struct {
	tracer  trace.Tracer
	watcher *fsnotify.Watcher

	// Absolute paths of watched directories.
	watchedDirs map[string]struct{}

	repoRoot string
	roots    []string
	debounce time.Duration
	mu       sync.Mutex
	running  bool
}

// Opt configures a [Watcher].
type Opt func(*Watcher)

// WithRoots sets the package roots to watch, relative to the repo root.
func WithRoots(roots ...string) Opt {
	return func(w *Watcher) {
		w.roots = roots
	}
}

// WithDebounce sets the quiet period. Non-positive values use [DefaultDebounce].
func WithDebounce(d time.Duration) Opt {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a [Watcher] for repoRoot.
func New(repoRoot string, opts ...Opt) (*Watcher, error) {
	abs, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		tracer:      otel.Tracer("watch"),
		watcher:     fw,
		watchedDirs: make(map[string]struct{}),
		repoRoot:    abs,
		roots:       discovery.DefaultRoots,
		debounce:    DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Relevant reports whether a change to path can alter lint results.
func Relevant(path string) bool {
	base := filepath.Base(path)
	if slices.Contains(relevantNames, base) {
		return true
	}
	if strings.HasPrefix(base, "tsconfig") && strings.HasSuffix(base, ".json") {
		return true
	}
	if strings.HasPrefix(base, "tsup.config.") {
		return true
	}

	return slices.Contains(relevantExts, filepath.Ext(base))
}

// Run calls fn once, then again after each batch of relevant changes,
// until ctx is canceled. Errors from fn are logged and do not stop the
// watcher.
func (w *Watcher) Run(ctx context.Context, fn Func) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	logger := log.WithContext(ctx)

	err := w.addWatches(ctx)
	if err != nil {
		return err
	}

	w.invoke(ctx, fn, "")

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		trigger string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.DebugContext(ctx, "watcher stopped")
			return nil

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			// Ignore events that are not related to file content changes.
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}

			if evt.Has(fsnotify.Create) {
				w.watchNewDir(ctx, evt.Name)
			}

			if !Relevant(evt.Name) {
				continue
			}

			logger.DebugContext(ctx, "file event",
				slog.String("path", evt.Name),
				slog.String("op", evt.Op.String()),
			)

			trigger = evt.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.invoke(ctx, fn, trigger)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorContext(ctx, "watcher error", slog.Any("error", err))
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}

	return nil
}

// Dirs returns the watched directories in lexical order.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make([]string, 0, len(w.watchedDirs))
	for d := range w.watchedDirs {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)

	return dirs
}

func (w *Watcher) invoke(ctx context.Context, fn Func, trigger string) {
	ctx, span := w.tracer.Start(ctx, "rerun", trace.WithAttributes(
		attribute.String("trigger", trigger),
	))
	defer span.End()

	err := fn(ctx)
	if err != nil && ctx.Err() == nil {
		span.RecordError(err)
		log.WithContext(ctx).ErrorContext(ctx, "run failed", slog.Any("error", err))
	}
}

func (w *Watcher) addWatches(ctx context.Context) error {
	err := w.addDir(w.repoRoot)
	if err != nil {
		return err
	}

	for _, root := range w.roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(w.repoRoot, root)
		}

		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}

		err = w.addTree(root)
		if err != nil {
			return err
		}
	}

	log.WithContext(ctx).DebugContext(ctx, "added file watchers",
		slog.String("path", w.repoRoot),
		slog.Int("count", len(w.watchedDirs)),
	)

	return nil
}

func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}

			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && discovery.IgnoredDir(d.Name()) {
			return fs.SkipDir
		}

		return w.addDir(path)
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	return nil
}

func (w *Watcher) addDir(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.watchedDirs[dir]; ok {
		return nil
	}

	err := w.watcher.Add(dir)
	if err != nil {
		return fmt.Errorf("add path to watcher: %w", err)
	}

	w.watchedDirs[dir] = struct{}{}

	return nil
}

// watchNewDir starts watching a directory created inside a watched package
// root.
func (w *Watcher) watchNewDir(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || discovery.IgnoredDir(info.Name()) {
		return
	}

	// Directories created directly in the repo root are not package roots.
	if filepath.Dir(path) == w.repoRoot {
		return
	}

	err = w.addTree(path)
	if err != nil {
		log.WithContext(ctx).DebugContext(ctx, "watch new directory",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}
}
