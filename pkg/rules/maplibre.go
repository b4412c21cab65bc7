package rules

import (
	"log/slog"
	"slices"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

var (
	defaultMapLibreLibs  = []string{"maplibre-gl", "@vis.gl/react-maplibre"}
	defaultMapLibreAllow = []string{"@hierarchidb/ui-map"}
)

type mapLibreOptions struct {
	Severity *finding.Severity `json:"severity"`
	Libs     []string          `json:"libs"`
	Allow    []string          `json:"allow"`
}

// mapLibre keeps the MapLibre stack behind a wrapper package. The
// configurable form reads libs, allow and severity from options.
type mapLibre struct {
	configurable bool
}

func (m mapLibre) Description() string {
	if m.configurable {
		return "restrict map libraries to allowlisted packages (options: libs, allow, severity)"
	}

	return "only @hierarchidb/ui-map may depend on maplibre-gl or @vis.gl/react-maplibre"
}

func (m mapLibre) Run(ctx *rule.Context) []finding.Finding {
	libs := defaultMapLibreLibs
	allow := defaultMapLibreAllow
	sev := finding.Error
	message := "Direct dependency on MapLibre stack is not allowed. Use @hierarchidb/ui-map wrapper instead. Found:"

	if m.configurable {
		message = "Direct dependency on MapLibre stack is not allowed. Use wrapper instead. Found:"

		var opts mapLibreOptions

		err := ctx.Options.Decode(&opts)
		if err != nil {
			slog.Warn("ignore invalid rule options",
				slog.String("rule", MapLibreAllowlist),
				slog.Any("error", err),
			)
		}

		if len(opts.Libs) > 0 {
			libs = opts.Libs
		}
		if opts.Allow != nil {
			allow = opts.Allow
		}
		if opts.Severity != nil {
			sev = *opts.Severity
		}
	}

	if slices.Contains(allow, ctx.PackageName) {
		return nil
	}

	found := []string{}
	for _, lib := range libs {
		if ctx.Meta.Deps.Has(lib) || ctx.Meta.Peers.Has(lib) || ctx.Meta.Devs.Has(lib) {
			found = append(found, lib)
		}
	}

	if len(found) == 0 {
		return nil
	}

	return one(ctx, MapLibreDirectDep, sev, message+list(found))
}
