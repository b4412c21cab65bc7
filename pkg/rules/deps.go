package rules

import (
	"slices"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

type peerInExternal struct{}

func (peerInExternal) Description() string {
	return "peerDependencies must be listed in the bundler externals"
}

func (peerInExternal) Run(ctx *rule.Context) []finding.Finding {
	missing := []string{}
	for _, p := range ctx.Meta.Peers.Names() {
		if !slices.Contains(ctx.Meta.Externals, p) {
			missing = append(missing, p)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return one(ctx, PeerInExternal, finding.Warn, "peer not in tsup.external:"+list(missing))
}

type externalInDeps struct{}

func (externalInDeps) Description() string {
	return "bundler externals should be peers, not plain dependencies"
}

func (externalInDeps) Run(ctx *rule.Context) []finding.Finding {
	bad := []string{}
	for _, e := range ctx.Meta.Externals {
		if ctx.Meta.Deps.Has(e) && !ctx.Meta.Peers.Has(e) {
			bad = append(bad, e)
		}
	}

	if len(bad) == 0 {
		return nil
	}

	return one(ctx, ExternalInDeps, finding.Warn, "external also in dependencies (consider peer):"+list(bad))
}
