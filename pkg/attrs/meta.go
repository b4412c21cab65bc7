package attrs

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/macropower/depfence/pkg/expr"
	"github.com/macropower/depfence/pkg/manifest"
)

// UIHints are dependency names that mark a package as UI.
var UIHints = []string{
	"react",
	"react-dom",
	"@mui/material",
	"@mui/icons-material",
	"@emotion/react",
	"@emotion/styled",
}

var domLibRe = regexp.MustCompile(`(?i)dom`)

// PackageMeta is everything depfence knows about one package. It is built
// once per run and not modified afterwards.
type PackageMeta struct {
	Manifest  *manifest.Manifest
	TSConfig  *manifest.TSConfig
	Deps      NameSet
	Peers     NameSet
	Devs      NameSet
	Attrs     Set
	Name      string
	Dir       string
	Externals []string
}

// BuildOpt configures [Build].
type BuildOpt func(*buildOptions)

type buildOptions struct {
	repoRoot string
}

// WithRepoRoot sets the repository root. Directory-based attributes only
// look at the part of the package path below it.
func WithRepoRoot(root string) BuildOpt {
	return func(o *buildOptions) {
		o.repoRoot = root
	}
}

// Build derives the metadata of the package in dir. defaults are the
// repo-wide bundler externals. Missing or unreadable files yield zero
// values.
func Build(dir string, m *manifest.Manifest, defaults []string, opts ...BuildOpt) *PackageMeta {
	o := &buildOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if m == nil {
		m = &manifest.Manifest{}
	}

	name := m.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	meta := &PackageMeta{
		Name:      name,
		Dir:       dir,
		Manifest:  m,
		TSConfig:  manifest.LoadTSConfig(dir),
		Externals: manifest.Externals(dir, m, defaults),
		Deps:      NewNameSet(m.Dependencies.Keys()...),
		Peers:     NewNameSet(m.PeerDependencies.Keys()...),
		Devs:      NewNameSet(m.DevDependencies.Keys()...),
		Attrs:     Set{},
	}
	meta.derive(relDir(o.repoRoot, dir))

	return meta
}

// relDir returns dir relative to root, or the base name of dir when root
// is unset or not an ancestor.
func relDir(root, dir string) string {
	if root != "" {
		absRoot, rootErr := filepath.Abs(root)
		absDir, dirErr := filepath.Abs(dir)
		if rootErr == nil && dirErr == nil {
			root, dir = absRoot, absDir
		}

		rel, err := filepath.Rel(root, dir)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}

	return filepath.Base(dir)
}

func (p *PackageMeta) derive(rel string) {
	a := p.Attrs

	if p.Manifest.Private {
		a.Add(Private)
	} else {
		a.Add(Publishable)
	}

	if manifest.HasTsupConfig(p.Dir) || p.Devs.Has("tsup") {
		a.Add(UsesTsup)
	}

	if hasFileUnder(filepath.Join(p.Dir, "src"), ".tsx") {
		a.Add(HasTsx)
	}

	for _, hint := range UIHints {
		if p.Deps.Has(hint) || p.Peers.Has(hint) || p.Devs.Has(hint) {
			a.Add(UI)

			break
		}
	}

	if a.Has(HasTsx) {
		a.Add(UI)
	}

	if p.Deps.Has("next") || p.Devs.Has("next") {
		a.Add(Next)
	}

	if p.Deps.Has("storybook") || p.Devs.Has("storybook") || p.Devs.Has("@storybook/react") {
		a.Add(Storybook)
	}

	if filepath.Base(p.Dir) == "app" || strings.HasSuffix(p.Name, "/app") {
		a.Add(App)
	}

	browser := a.Has(UI)
	for _, lib := range p.TSConfig.CompilerOptions.Lib {
		if domLibRe.MatchString(lib) {
			browser = true
		}
	}

	if browser {
		a.Add(Browser)
	} else {
		a.Add(Node)
	}

	// The name check ignores case, the directory check does not.
	if strings.Contains(strings.ToLower(p.Name), "worker") || strings.Contains(rel, "worker") {
		a.Add(Worker)
	}

	if p.TSConfig.CompilerOptions.SkipLibCheck {
		a.Add(SkipLibCheck)
	}
}

// AllDeps returns dependencies, then peers, then devDependencies, in
// manifest order and without duplicates.
func (p *PackageMeta) AllDeps() []string {
	seen := NameSet{}
	out := []string{}

	for _, group := range []NameSet{p.Deps, p.Peers, p.Devs} {
		for _, name := range group.Names() {
			if !seen.Has(name) {
				seen.add(name)
				out = append(out, name)
			}
		}
	}

	return out
}

// Vars returns the CEL activation for p, matching [expr.PackageVariables].
func (p *PackageMeta) Vars() map[string]any {
	raw := map[string]any{}
	if p.Manifest != nil {
		raw = p.Manifest.Raw.Any()
	}

	return map[string]any{
		expr.VarName:      p.Name,
		expr.VarDir:       p.Dir,
		expr.VarAttrs:     p.Attrs.Sorted(),
		expr.VarDeps:      nonNil(p.Deps.Names()),
		expr.VarPeers:     nonNil(p.Peers.Names()),
		expr.VarDevs:      nonNil(p.Devs.Names()),
		expr.VarExternals: nonNil(p.Externals),
		expr.VarManifest:  raw,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

// hasFileUnder reports whether any file below dir has the given suffix.
func hasFileUnder(dir, suffix string) bool {
	found := false

	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return fs.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
			found = true

			return fs.SkipAll
		}

		return nil
	})

	return found
}
