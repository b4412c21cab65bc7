package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/lint"
	"github.com/macropower/depfence/pkg/log"
	"github.com/macropower/depfence/pkg/metrics"
	"github.com/macropower/depfence/pkg/report"
	"github.com/macropower/depfence/pkg/watch"
	"github.com/macropower/depfence/pkg/yaml"
)

const (
	lintExamples = `  # Check every package of the repository containing the current directory:
  depfence

  # Fail when any error-level finding is reported:
  depfence --strict

  # Machine-readable output:
  depfence --format json

  # Run only some rules, for packages tagged "ui":
  depfence --only ui-in-deps,ui-missing-peer --require-attr ui

  # Re-run on every change to manifests, tsconfigs and sources:
  depfence --watch

  # Print the active policy set:
  depfence --show-config`
)

// ErrPolicyViolation is returned in strict mode when an error-level finding
// was reported.
var ErrPolicyViolation = errors.New("policy violations found")

type LintArgs struct {
	*RootArgs
	ConfigArgs

	Format       string
	MetricsFile  string
	Only         []string
	Skip         []string
	RequireAttrs []string
	Roots        []string
	Strict       bool
	Watch        bool
	ShowConfig   bool
}

func NewLintArgs(rootArgs *RootArgs) *LintArgs {
	return &LintArgs{
		RootArgs: rootArgs,
	}
}

func (la *LintArgs) AddFlags(cmd *cobra.Command) {
	la.ConfigArgs.AddFlags(cmd)

	cmd.Flags().StringVarP(&la.Format, "format", "f", string(report.FormatText),
		fmt.Sprintf("Output format, one of: %s", report.AllFormats))
	cmd.Flags().BoolVar(&la.Strict, "strict", false, "Exit non-zero when any error-level finding is reported")
	cmd.Flags().BoolVarP(&la.Watch, "watch", "w", false, "Watch for changes and re-run")
	cmd.Flags().BoolVar(&la.ShowConfig, "show-config", false, "Print the active policy set and exit")
	cmd.Flags().StringVar(&la.MetricsFile, "metrics-file", "",
		"Write Prometheus metrics for each run to this file")
	cmd.Flags().StringSliceVar(&la.Only, "only", nil, "Only report these rules")
	cmd.Flags().StringSliceVar(&la.Skip, "skip", nil, "Do not run or report these rules")
	cmd.Flags().StringSliceVar(&la.RequireAttrs, "require-attr", nil,
		"Only check packages carrying every one of these attributes")
	cmd.Flags().StringSliceVar(&la.Roots, "roots", nil,
		"Directories searched for packages, relative to the repo root")

	err := cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions(report.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewLintCmd(la *LintArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lint [path]",
		Short:   "Default command, check every package against the policy set",
		Example: lintExamples,
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return nil, cobra.ShellCompDirectiveFilterDirs
			}

			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, la, pathArg(args))
		},
		SilenceUsage: true,
	}
	la.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func (la *LintArgs) linter(colored bool) *lint.Linter {
	cfg := la.LintConfig(colored)
	cfg.Roots = la.Roots
	cfg.Only = la.Only
	cfg.Skip = la.Skip
	cfg.RequireAttrs = la.RequireAttrs

	return lint.New(cfg)
}

func runLint(cmd *cobra.Command, la *LintArgs, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := report.ParseFormat(la.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", log.ErrInvalidArgument, err)
	}

	var (
		out     = cmd.OutOrStdout()
		colored = isTerminal(out)
		l       = la.linter(isTerminal(cmd.ErrOrStderr()))
	)

	if la.ShowConfig {
		return showConfig(ctx, out, l, path)
	}

	var recorder *metrics.Recorder
	if la.MetricsFile != "" {
		recorder = metrics.NewRecorder(metrics.WithRules(l.Registry().Names()...))
	}

	once := func(ctx context.Context) error {
		res, err := l.Lint(ctx, path)
		if err != nil {
			return err //nolint:wrapcheck // Already wrapped by lint.
		}

		err = report.Write(out, format, res.Findings,
			report.WithColor(colored),
			report.WithSummary(true),
		)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		if recorder != nil {
			recorder.Observe(res.Report)

			err = recorder.WriteTextfile(la.MetricsFile)
			if err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}

		if la.Strict {
			if sev, ok := finding.Max(res.Findings); ok && sev >= finding.Error {
				return ErrPolicyViolation
			}
		}

		return nil
	}

	if !la.Watch {
		return once(ctx)
	}

	s, err := l.Load(ctx, path)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped by lint.
	}

	roots := la.Roots
	if len(roots) == 0 {
		roots = s.RepoConfig.Roots
	}

	opts := []watch.Opt{}
	if len(roots) > 0 {
		opts = append(opts, watch.WithRoots(roots...))
	}

	w, err := watch.New(s.RepoRoot, opts...)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		err := w.Close()
		if err != nil {
			slog.ErrorContext(ctx, "close watcher", slog.Any("error", err))
		}
	}()

	slog.InfoContext(ctx, "watching for changes", slog.String("root", s.RepoRoot))

	err = w.Run(ctx, func(ctx context.Context) error {
		if format == report.FormatText {
			mustN(fmt.Fprintln(out, strings.Repeat("─", 40)))
		}

		return once(ctx)
	})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	return nil
}

func showConfig(ctx context.Context, w io.Writer, l *lint.Linter, path string) error {
	s, err := l.Load(ctx, path)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped by lint.
	}

	source := s.PolicyFile
	if source == "" {
		source = "(built-in defaults)"
	}

	slog.InfoContext(ctx, "active configuration",
		slog.String("root", s.RepoRoot),
		slog.String("path", source),
	)

	b, err := yaml.Marshal(s.PolicySet)
	if err != nil {
		return fmt.Errorf("marshal policy set: %w", err)
	}

	_, err = w.Write(b)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}
