// Package engine runs policies against every package in a repository.
//
// Evaluation is sequential and deterministic: findings are ordered by
// package discovery order, then policy order, then rule order, then the
// order in which each rule emits them.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/discovery"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/log"
	"github.com/macropower/depfence/pkg/manifest"
	"github.com/macropower/depfence/pkg/policy"
	"github.com/macropower/depfence/pkg/rule"
	"github.com/macropower/depfence/pkg/rules"
)

// Engine evaluates policies. An Engine holds no per-run state and may be
// reused.
type Engine struct {
	tracer            trace.Tracer
	registry          *rule.Registry
	only              map[string]bool
	skip              map[string]bool
	allowSkipLibCheck attrs.NameSet
	repoRoot          string
	defaultExternals  []string
	roots             []string
	requireAttrs      []string
	allowlist         finding.Allowlist
	externalsSet      bool
}

// Report is the outcome of one run.
type Report struct {
	RunID    string
	Findings []finding.Finding
	// Packages is the number of packages that were evaluated.
	Packages int
	Duration time.Duration
}

// New creates a new [Engine]. Without options it evaluates the built-in
// rules for packages under the default roots of the working directory.
func New(opts ...Opt) *Engine {
	e := &Engine{
		tracer:   otel.Tracer("engine"),
		registry: rules.NewRegistry(),
		repoRoot: ".",
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Registry returns the rule registry used by e.
func (e *Engine) Registry() *rule.Registry {
	return e.registry
}

// Run evaluates policies against every discovered package and returns the
// findings in order.
func (e *Engine) Run(ctx context.Context, policies []*policy.Policy) ([]finding.Finding, error) {
	r, err := e.RunReport(ctx, policies)
	if err != nil {
		return nil, err
	}

	return r.Findings, nil
}

// RunReport is [Engine.Run] with run statistics.
func (e *Engine) RunReport(ctx context.Context, policies []*policy.Policy) (*Report, error) {
	runID := uuid.NewString()

	ctx, span := e.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("root", e.repoRoot),
		attribute.Int("policies", len(policies)),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("run_id", runID))
	start := time.Now()

	dirs, err := discovery.Find(e.repoRoot, e.roots...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")

		return nil, err //nolint:wrapcheck // Already wrapped by discovery.
	}

	defaults := e.defaultExternals
	if !e.externalsSet {
		defaults = manifest.DefaultExternals(e.repoRoot)
	}

	report := &Report{RunID: runID, Findings: []finding.Finding{}}

	for _, dir := range dirs {
		err := ctx.Err()
		if err != nil {
			span.SetStatus(codes.Error, "canceled")

			return nil, err //nolint:wrapcheck // Return the context error as is.
		}

		m, err := manifest.Load(dir)
		if err != nil {
			logger.Debug("skip package", slog.String("dir", dir), slog.Any("error", err))

			continue
		}

		meta := attrs.Build(dir, m, defaults, attrs.WithRepoRoot(e.repoRoot))
		if !meta.Attrs.HasAll(e.requireAttrs...) {
			logger.Debug("skip package without required attributes",
				slog.String("package", meta.Name),
				slog.Any("attrs", meta.Attrs.Sorted()),
			)

			continue
		}

		report.Packages++
		report.Findings = append(report.Findings, e.evaluate(logger, meta, defaults, policies)...)
	}

	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("packages", report.Packages),
		attribute.Int("findings", len(report.Findings)),
	)

	logger.Debug("run complete",
		slog.Int("packages", report.Packages),
		slog.Int("findings", len(report.Findings)),
		slog.Duration("duration", report.Duration),
	)

	return report, nil
}

func (e *Engine) evaluate(
	logger *slog.Logger,
	meta *attrs.PackageMeta,
	defaults []string,
	policies []*policy.Policy,
) []finding.Finding {
	out := []finding.Finding{}

	for _, p := range policies {
		res := p.Evaluate(meta)
		if !res.Matched {
			continue
		}

		logger.Debug("policy matched",
			slog.String("package", meta.Name),
			slog.String("policy", p.ID),
			slog.String("because", res.Justification),
		)

		base := rule.Context{
			Meta:              meta,
			Manifest:          meta.Manifest,
			AllowSkipLibCheck: e.allowSkipLibCheck,
			PackageName:       meta.Name,
			PackageDir:        meta.Dir,
			Because:           p.Justification(res),
			DefaultExternals:  defaults,
		}

		for _, ref := range p.Rules {
			name := ref.String()
			if e.skip[name] {
				continue
			}

			var fs []finding.Finding

			if ref.Custom != nil {
				ctx := base

				var failed bool

				fs, failed = ref.Custom.Invoke(&ctx)
				if failed {
					// Failures are reported as-is: no override, no allowlist.
					if e.keep(name, name) {
						out = append(out, fs...)
					}

					continue
				}
			} else {
				runner, ok := e.registry.Lookup(name)
				if !ok {
					logger.Debug("skip unknown rule",
						slog.String("policy", p.ID),
						slog.String("rule", name),
						slog.String("suggestion", e.registry.Suggest(name)),
					)

					continue
				}

				ctx := base
				ctx.Options = p.Options[name]
				fs = runner.Run(&ctx)
			}

			for _, f := range fs {
				if !e.keep(name, f.Rule) {
					continue
				}

				if sev, ok := p.SeverityOverride[f.Rule]; ok {
					f.Severity = sev
				}

				out = append(out, e.allowlist.Apply(f))
			}
		}
	}

	return out
}

// keep applies the only/skip filters to a finding emitted by ref.
func (e *Engine) keep(ref, name string) bool {
	if e.skip[ref] || e.skip[name] {
		return false
	}

	if len(e.only) > 0 {
		return e.only[ref] || e.only[name]
	}

	return true
}
