package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/macropower/depfence/api"
	"github.com/macropower/depfence/api/v1beta1/policysets"
)

// FindPolicySet returns path if set, otherwise the first policy set file
// found at repoRoot. It returns an empty string when there is none.
func FindPolicySet(path, repoRoot string) string {
	if path != "" {
		return path
	}

	candidates := make([]string, 0, len(policysets.FileNames))
	for _, name := range policysets.FileNames {
		candidates = append(candidates, filepath.Join(repoRoot, name))
	}

	return api.FirstExisting(candidates...)
}

// LoadPolicySet loads the policy set at path, or the file found at repoRoot
// when path is empty. Without any file, the built-in default policy set is
// returned. The returned string is the path that was loaded, if any.
func LoadPolicySet(path, repoRoot string, opts ...LoaderOpt) (*policysets.PolicySet, string, error) {
	path = FindPolicySet(path, repoRoot)
	if path == "" {
		slog.Debug("no policy set found, using defaults", slog.String("root", repoRoot))

		return policysets.Default(), "", nil
	}

	l, err := NewLoaderFromFile(path, policysets.New, policysets.DefaultValidator, opts...)
	if err != nil {
		return nil, path, fmt.Errorf("read policy set: %w", err)
	}

	ps, err := l.ValidateAndLoad()
	if err != nil {
		return nil, path, fmt.Errorf("load policy set %s: %w", path, err)
	}

	slog.Debug("loaded policy set",
		slog.String("path", path),
		slog.Int("policies", len(ps.Policies)),
	)

	return ps, path, nil
}
