package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/macropower/depfence/api"
	"github.com/macropower/depfence/api/v1beta1/repoconfigs"
)

// FindRepoConfig returns path if set, otherwise the first repo config file
// found at repoRoot. It returns an empty string when there is none.
func FindRepoConfig(path, repoRoot string) string {
	if path != "" {
		return path
	}

	candidates := make([]string, 0, len(repoconfigs.FileNames))
	for _, name := range repoconfigs.FileNames {
		candidates = append(candidates, filepath.Join(repoRoot, name))
	}

	return api.FirstExisting(candidates...)
}

// LoadRepoConfig loads the repo config at path, or the file found at
// repoRoot when path is empty. A missing file yields defaults.
//
// Files named *.json are read in the legacy dep-fence.config.json format.
// A legacy file that cannot be parsed is ignored with a warning; a YAML
// file that fails validation is an error.
func LoadRepoConfig(path, repoRoot string, opts ...LoaderOpt) (*repoconfigs.RepoConfig, error) {
	path = FindRepoConfig(path, repoRoot)
	if path == "" {
		return repoconfigs.New(), nil
	}

	if filepath.Ext(path) == ".json" {
		rc, err := repoconfigs.LoadLegacy(path)
		if err != nil {
			slog.Warn("ignore unreadable repo config",
				slog.String("path", path),
				slog.Any("error", err),
			)

			return repoconfigs.New(), nil
		}

		return rc, nil
	}

	l, err := NewLoaderFromFile(path, repoconfigs.New, repoconfigs.DefaultValidator, opts...)
	if err != nil {
		return nil, fmt.Errorf("read repo config: %w", err)
	}

	rc, err := l.ValidateAndLoad()
	if err != nil {
		return nil, fmt.Errorf("load repo config %s: %w", path, err)
	}

	return rc, nil
}
