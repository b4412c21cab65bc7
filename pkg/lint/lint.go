// Package lint loads a repository's configuration and runs the engine
// against it. It is the entry point shared by the CLI, watch mode, and the
// MCP server.
package lint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/macropower/depfence/api/v1beta1/policysets"
	"github.com/macropower/depfence/api/v1beta1/repoconfigs"
	"github.com/macropower/depfence/pkg/config"
	"github.com/macropower/depfence/pkg/discovery"
	"github.com/macropower/depfence/pkg/engine"
	"github.com/macropower/depfence/pkg/log"
	"github.com/macropower/depfence/pkg/policy"
	"github.com/macropower/depfence/pkg/rule"
	"github.com/macropower/depfence/pkg/rules"
)

// Config selects configuration files and narrows a run.
type Config struct {
	// PolicyFile overrides policy set discovery.
	PolicyFile string
	// RepoConfigFile overrides repo config discovery.
	RepoConfigFile string
	// Roots override the repo config's package roots.
	Roots        []string
	Only         []string
	Skip         []string
	RequireAttrs []string
	// Color enables colored source annotations in config errors.
	Color bool
}

// Linter runs lint passes. It holds no per-run state.
type Linter struct {
	registry *rule.Registry
	cfg      Config
}

// Opt configures a [Linter].
type Opt func(*Linter)

// WithRegistry sets the rule registry. It defaults to the built-in rules.
func WithRegistry(r *rule.Registry) Opt {
	return func(l *Linter) {
		l.registry = r
	}
}

// New creates a [Linter].
func New(cfg Config, opts ...Opt) *Linter {
	l := &Linter{
		cfg:      cfg,
		registry: rules.NewRegistry(),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Registry returns the rule registry used by l.
func (l *Linter) Registry() *rule.Registry {
	return l.registry
}

// Setup is the configuration resolved for one directory.
type Setup struct {
	RepoConfig *repoconfigs.RepoConfig
	PolicySet  *policysets.PolicySet
	RepoRoot   string
	// PolicyFile is the loaded policy set file, or empty for the defaults.
	PolicyFile string
	Policies   []*policy.Policy
}

// Result is the outcome of [Linter.Lint].
type Result struct {
	*engine.Report
	*Setup
}

// Load resolves the repo root for dir and loads its configuration.
func (l *Linter) Load(ctx context.Context, dir string) (*Setup, error) {
	root, err := discovery.FindRepoRoot(dir)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped by discovery.
	}

	loaderOpts := []config.LoaderOpt{config.WithColor(l.cfg.Color)}

	rc, err := config.LoadRepoConfig(l.cfg.RepoConfigFile, root, loaderOpts...)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped by config.
	}

	ps, path, err := config.LoadPolicySet(l.cfg.PolicyFile, root, loaderOpts...)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped by config.
	}

	policies, err := policy.FromSet(ps)
	if err != nil {
		return nil, fmt.Errorf("build policies: %w", err)
	}

	log.WithContext(ctx).DebugContext(ctx, "loaded configuration",
		slog.String("root", root),
		slog.String("policy_file", path),
		slog.Int("policies", len(policies)),
	)

	return &Setup{
		RepoRoot:   root,
		RepoConfig: rc,
		PolicySet:  ps,
		PolicyFile: path,
		Policies:   policies,
	}, nil
}

// Engine builds the engine for s.
func (l *Linter) Engine(s *Setup) *engine.Engine {
	roots := l.cfg.Roots
	if len(roots) == 0 {
		roots = s.RepoConfig.Roots
	}

	return engine.New(
		engine.WithRegistry(l.registry),
		engine.WithRepoRoot(s.RepoRoot),
		engine.WithRoots(roots...),
		engine.WithOnlyRules(l.cfg.Only...),
		engine.WithSkipRules(l.cfg.Skip...),
		engine.WithRequireAttrs(l.cfg.RequireAttrs...),
		engine.WithAllowlist(s.RepoConfig.Allowlist),
		engine.WithAllowSkipLibCheck(s.RepoConfig.AllowSkipLibCheck...),
	)
}

// Lint loads the configuration for dir and runs every policy.
func (l *Linter) Lint(ctx context.Context, dir string) (*Result, error) {
	s, err := l.Load(ctx, dir)
	if err != nil {
		return nil, err
	}

	// Unknown rules are skipped; "depfence validate" reports them.
	for _, p := range Check(s.Policies, l.registry) {
		log.WithContext(ctx).DebugContext(ctx, "policy problem",
			slog.String("policy", p.Policy),
			slog.String("rule", p.Rule),
			slog.String("problem", p.Message),
		)
	}

	r, err := l.Engine(s).RunReport(ctx, s.Policies)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	return &Result{Report: r, Setup: s}, nil
}
