// Package expr provides the CEL (Common Expression Language) environment
// used by depfence conditions and custom rules.
//
// Expressions are evaluated against one package and have access to:
//   - `name` (string): the package name
//   - `dir` (string): the package directory
//   - `attrs` (list<string>): derived attribute tags
//   - `deps`, `peers`, `devs` (list<string>): dependency names by kind
//   - `externals` (list<string>): resolved bundler externals
//   - `manifest` (map<string, dyn>): the decoded package.json
//
// In addition to the CEL string, list and math extensions, the environment
// provides:
//   - pathBase, pathDir, pathExt, pathJoin: file path helpers
//   - fileExists(path): whether a regular file exists
//   - yamlPath(file, path): read a value from a YAML or JSON file
package expr
