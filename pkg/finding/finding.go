// Package finding defines the result records produced by depfence rules.
package finding

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
)

// Severity ranks a [Finding]. Info < Warn < Error.
type Severity int

const (
	Info Severity = iota
	Warn
	Error
)

var (
	ErrUnknownSeverity = errors.New("unknown severity")

	// AllSeverities lists the canonical severity names, lowest first.
	AllSeverities = []string{"info", "warn", "error"}
)

// ParseSeverity parses a severity name. Matching is case-insensitive and
// "warning" is accepted as an alias for "warn".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	}

	return Info, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
}

// String returns the lower-case name used in JSON and YAML.
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	}

	return fmt.Sprintf("severity(%d)", int(s))
}

// Label returns the upper-case name used in text reports.
func (s Severity) Label() string {
	return strings.ToUpper(s.String())
}

func (s Severity) MarshalText() ([]byte, error) {
	switch s {
	case Info, Warn, Error:
		return []byte(s.String()), nil
	}

	return nil, fmt.Errorf("%w: %d", ErrUnknownSeverity, int(s))
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}

	*s = v

	return nil
}

func (Severity) JSONSchema() *jsonschema.Schema {
	enum := []any{}
	for _, name := range AllSeverities {
		enum = append(enum, name, strings.ToUpper(name))
	}

	enum = append(enum, "warning", "WARNING")

	return &jsonschema.Schema{
		Type:        "string",
		Title:       "Severity",
		Description: "One of info, warn or error (case-insensitive).",
		Enum:        enum,
	}
}

// Finding is a single rule result for one package.
type Finding struct {
	PackageName string   `json:"packageName"`
	PackageDir  string   `json:"packageDir"`
	Rule        string   `json:"rule"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Because     string   `json:"because,omitempty"`
}

// Max returns the highest severity in fs, and false if fs is empty.
func Max(fs []Finding) (Severity, bool) {
	if len(fs) == 0 {
		return Info, false
	}

	return slices.MaxFunc(fs, func(a, b Finding) int {
		return cmp.Compare(a.Severity, b.Severity)
	}).Severity, true
}

// Count returns the number of findings per severity.
func Count(fs []Finding) map[Severity]int {
	counts := map[Severity]int{Info: 0, Warn: 0, Error: 0}
	for _, f := range fs {
		counts[f.Severity]++
	}

	return counts
}

// GroupByPackage groups findings by package name, keeping the order in
// which packages first appear.
func GroupByPackage(fs []Finding) ([]string, map[string][]Finding) {
	order := []string{}
	groups := map[string][]Finding{}

	for _, f := range fs {
		if _, ok := groups[f.PackageName]; !ok {
			order = append(order, f.PackageName)
		}

		groups[f.PackageName] = append(groups[f.PackageName], f)
	}

	return order, groups
}
