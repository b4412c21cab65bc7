package rules

import (
	"log/slog"

	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

const (
	uiInDepsMessage      = "UI libs should be peerDependencies (not dependencies):"
	uiMissingPeerMessage = "UI libs installed but missing in peerDependencies:"
)

func uiInDepsNames(meta *attrs.PackageMeta, libs []string) []string {
	out := []string{}
	for _, lib := range libs {
		if meta.Deps.Has(lib) {
			out = append(out, lib)
		}
	}

	return out
}

func uiMissingPeerNames(meta *attrs.PackageMeta, libs []string) []string {
	out := []string{}
	for _, lib := range libs {
		if (meta.Deps.Has(lib) || meta.Devs.Has(lib)) && !meta.Peers.Has(lib) {
			out = append(out, lib)
		}
	}

	return out
}

type uiInDeps struct{}

func (uiInDeps) Description() string {
	return "UI libraries must not be plain dependencies"
}

func (uiInDeps) Run(ctx *rule.Context) []finding.Finding {
	bad := uiInDepsNames(ctx.Meta, attrs.UIHints)
	if len(bad) == 0 {
		return nil
	}

	return one(ctx, UIInDeps, finding.Error, uiInDepsMessage+list(bad))
}

type uiMissingPeer struct{}

func (uiMissingPeer) Description() string {
	return "installed UI libraries must also be peerDependencies"
}

func (uiMissingPeer) Run(ctx *rule.Context) []finding.Finding {
	bad := uiMissingPeerNames(ctx.Meta, attrs.UIHints)
	if len(bad) == 0 {
		return nil
	}

	return one(ctx, UIMissingPeer, finding.Warn, uiMissingPeerMessage+list(bad))
}

type uiPeerPolicyOptions struct {
	ForbidInDeps   *bool                       `json:"forbidInDeps"`
	RequireInPeers *bool                       `json:"requireInPeers"`
	Severity       map[string]finding.Severity `json:"severity"`
	Libs           []string                    `json:"libs"`
}

// uiPeerPolicy is a configurable combination of ui-in-deps and
// ui-missing-peer. Both default to warn.
type uiPeerPolicy struct{}

func (uiPeerPolicy) Description() string {
	return "configurable UI peer policy (options: libs, forbidInDeps, requireInPeers, severity)"
}

func (uiPeerPolicy) Run(ctx *rule.Context) []finding.Finding {
	var opts uiPeerPolicyOptions

	err := ctx.Options.Decode(&opts)
	if err != nil {
		slog.Warn("ignore invalid rule options",
			slog.String("rule", UIPeerPolicy),
			slog.Any("error", err),
		)

		opts = uiPeerPolicyOptions{}
	}

	libs := opts.Libs
	if len(libs) == 0 {
		libs = attrs.UIHints
	}

	severity := func(name string) finding.Severity {
		if sev, ok := opts.Severity[name]; ok {
			return sev
		}

		return finding.Warn
	}

	out := []finding.Finding{}

	if opts.ForbidInDeps == nil || *opts.ForbidInDeps {
		if bad := uiInDepsNames(ctx.Meta, libs); len(bad) > 0 {
			out = append(out, ctx.Finding(UIInDeps, severity(UIInDeps), uiInDepsMessage+list(bad)))
		}
	}

	if opts.RequireInPeers == nil || *opts.RequireInPeers {
		if bad := uiMissingPeerNames(ctx.Meta, libs); len(bad) > 0 {
			out = append(out, ctx.Finding(UIMissingPeer, severity(UIMissingPeer), uiMissingPeerMessage+list(bad)))
		}
	}

	return out
}
