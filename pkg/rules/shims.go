package rules

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

type localShims struct{}

func (localShims) Description() string {
	return "local .d.ts shims under src/types should be documented"
}

func (localShims) Run(ctx *rule.Context) []finding.Finding {
	entries, err := os.ReadDir(filepath.Join(ctx.Meta.Dir, "src", "types"))
	if err != nil {
		return nil
	}

	shims := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".d.ts") {
			shims = append(shims, e.Name())
		}
	}

	if len(shims) == 0 {
		return nil
	}

	return one(ctx, LocalShims, finding.Warn, "local type shims present (document policy):"+list(shims))
}
