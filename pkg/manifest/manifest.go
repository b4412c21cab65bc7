// Package manifest reads the per-package inputs that depfence rules inspect:
// package.json, tsconfig.json and tsup bundler configuration.
//
// Reads are lenient. A field with an unexpected JSON type is treated as
// absent rather than failing the whole file.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PackageJSON is the manifest file name.
const PackageJSON = "package.json"

// Manifest is a decoded package.json.
type Manifest struct {
	Raw              Object
	Name             string
	Main             string
	Module           string
	Types            string
	Dependencies     Object
	PeerDependencies Object
	DevDependencies  Object
	// TsupExternal is the "tsup.external" array, if present.
	TsupExternal []string
	Private      bool
}

// Parse decodes package.json content.
func Parse(data []byte) (*Manifest, error) {
	var raw Object

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", PackageJSON, err)
	}

	m := &Manifest{Raw: raw, Private: raw.Truthy("private")}
	m.Name, _ = raw.String("name")
	m.Main, _ = raw.String("main")
	m.Module, _ = raw.String("module")
	m.Types, _ = raw.String("types")
	m.Dependencies, _ = raw.Object("dependencies")
	m.PeerDependencies, _ = raw.Object("peerDependencies")
	m.DevDependencies, _ = raw.Object("devDependencies")

	if tsup, ok := raw.Object("tsup"); ok {
		m.TsupExternal = tsup.Strings("external")
	}

	return m, nil
}

// Load reads and parses dir/package.json.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, PackageJSON)) //nolint:gosec // G304: Package dirs come from discovery.
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", PackageJSON, err)
	}

	return Parse(data)
}

// Exports returns the "exports" field normalized to subpath entries, in
// document order. A string export becomes {".": {default: s}}, and string
// subpath values become {default: v}. Other values are dropped.
func (m *Manifest) Exports() []ExportEntry {
	raw, ok := m.Raw.Raw("exports")
	if !ok {
		return nil
	}

	if s, ok := asString(raw); ok {
		return []ExportEntry{{Subpath: ".", Conditions: ObjectOf("default", s)}}
	}

	obj, ok := asObject(raw)
	if !ok {
		return nil
	}

	out := []ExportEntry{}
	for _, k := range obj.Keys() {
		v, _ := obj.Raw(k)
		if s, ok := asString(v); ok {
			out = append(out, ExportEntry{Subpath: k, Conditions: ObjectOf("default", s)})
		} else if cond, ok := asObject(v); ok {
			out = append(out, ExportEntry{Subpath: k, Conditions: cond})
		}
	}

	return out
}

// ExportEntry is one normalized subpath of package.json "exports".
type ExportEntry struct {
	Conditions Object
	Subpath    string
}
