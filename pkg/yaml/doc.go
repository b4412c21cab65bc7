// Package yaml wraps [github.com/goccy/go-yaml] with the options depfence
// uses everywhere, and adds JSON schema validation whose errors point back
// into the YAML source.
package yaml
