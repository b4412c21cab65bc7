package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// TSConfigJSON is the TypeScript configuration file name.
const TSConfigJSON = "tsconfig.json"

// TSConfig is the subset of tsconfig.json that rules inspect.
type TSConfig struct {
	CompilerOptions CompilerOptions
	CheckDeps       CheckDeps
	// Extends holds "extends", which may be a string or an array.
	Extends []string
}

type CompilerOptions struct {
	JSX          string
	Lib          []string
	Paths        []PathMapping
	SkipLibCheck bool
}

// PathMapping is one "compilerOptions.paths" entry.
type PathMapping struct {
	Key     string
	Targets []string
}

// CheckDeps is the depfence-specific "checkDeps" block.
type CheckDeps struct {
	Reason            string
	AllowSkipLibCheck bool
}

// ParseTSConfig decodes tsconfig.json content. Invalid content yields an
// empty config.
func ParseTSConfig(data []byte) *TSConfig {
	tc := &TSConfig{}

	var raw Object
	if json.Unmarshal(data, &raw) != nil {
		return tc
	}

	if s, ok := raw.String("extends"); ok {
		tc.Extends = []string{s}
	} else {
		tc.Extends = raw.Strings("extends")
	}

	if co, ok := raw.Object("compilerOptions"); ok {
		tc.CompilerOptions.JSX, _ = co.String("jsx")
		tc.CompilerOptions.Lib = co.Strings("lib")
		tc.CompilerOptions.SkipLibCheck = co.Truthy("skipLibCheck")

		if paths, ok := co.Object("paths"); ok {
			for _, k := range paths.Keys() {
				tc.CompilerOptions.Paths = append(tc.CompilerOptions.Paths, PathMapping{
					Key:     k,
					Targets: paths.Strings(k),
				})
			}
		}
	}

	if cd, ok := raw.Object("checkDeps"); ok {
		tc.CheckDeps.AllowSkipLibCheck = cd.Truthy("allowSkipLibCheck")
		tc.CheckDeps.Reason, _ = cd.String("reason")
	}

	return tc
}

// LoadTSConfig reads dir/tsconfig.json. A missing or invalid file yields an
// empty config.
func LoadTSConfig(dir string) *TSConfig {
	data, err := os.ReadFile(filepath.Join(dir, TSConfigJSON)) //nolint:gosec // G304: Package dirs come from discovery.
	if err != nil {
		return &TSConfig{}
	}

	return ParseTSConfig(data)
}
