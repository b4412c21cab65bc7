// Package rules contains the built-in depfence checks.
package rules

import (
	"strings"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

// Built-in rule names.
const (
	PeerInExternal         = "peer-in-external"
	ExternalInDeps         = "external-in-deps"
	UIInDeps               = "ui-in-deps"
	UIMissingPeer          = "ui-missing-peer"
	UIPeerPolicy           = "ui-peer-policy"
	PathsDirectSrc         = "paths-direct-src"
	LocalShims             = "local-shims"
	SkipLibCheckNoReason   = "skipLibCheck-no-reason"
	SkipLibCheckNotAllowed = "skipLibCheck-not-allowed"
	TSConfigNoBase         = "tsconfig-no-base"
	JSXMismatch            = "jsx-mismatch"
	MapLibreDirectDep      = "maplibre-direct-dep"
	MapLibreAllowlist      = "maplibre-allowlist"
	SourceImportBan        = "source-import-ban"
	TSConfigPaths          = "tsconfig-paths"
	PackageExportsGuard    = "package-exports-guard"
	PackageTypesDist       = "package-types-dist"
	PackageExportsExist    = "package-exports-exist"
)

// NewRegistry returns a registry holding every built-in rule.
func NewRegistry() *rule.Registry {
	reg := rule.NewRegistry()

	reg.Register(PeerInExternal, peerInExternal{})
	reg.Register(ExternalInDeps, externalInDeps{})
	reg.Register(UIInDeps, uiInDeps{})
	reg.Register(UIMissingPeer, uiMissingPeer{})
	reg.Register(UIPeerPolicy, uiPeerPolicy{})
	reg.Register(PathsDirectSrc, pathsDirectSrc{})
	reg.Register(LocalShims, localShims{})
	reg.Register(SkipLibCheckNoReason, skipLibCheckRule{emit: SkipLibCheckNoReason})
	reg.Register(SkipLibCheckNotAllowed, skipLibCheckRule{emit: SkipLibCheckNotAllowed})
	reg.Register(TSConfigNoBase, tsconfigNoBase{})
	reg.Register(JSXMismatch, jsxMismatch{})
	reg.Register(MapLibreDirectDep, mapLibre{})
	reg.Register(MapLibreAllowlist, mapLibre{configurable: true})
	reg.Register(SourceImportBan, sourceImportBan{})
	reg.Register(TSConfigPaths, tsconfigPaths{})
	reg.Register(PackageExportsGuard, packageExportsGuard{})
	reg.Register(PackageTypesDist, packageTypesDist{})
	reg.Register(PackageExportsExist, packageExportsExist{})

	return reg
}

// list formats items as "\n- a\n- b".
func list(items []string) string {
	return "\n- " + strings.Join(items, "\n- ")
}

func one(ctx *rule.Context, name string, sev finding.Severity, message string) []finding.Finding {
	return []finding.Finding{ctx.Finding(name, sev, message)}
}
