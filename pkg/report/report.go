// Package report renders findings for people and machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/yaml"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// AllFormats lists the supported formats.
	AllFormats = []string{string(FormatText), string(FormatJSON), string(FormatYAML)}

	ErrUnknownFormat = errors.New("unknown format")
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if !slices.Contains(AllFormats, string(f)) {
		return "", fmt.Errorf("%w: %q, expected one of %v", ErrUnknownFormat, s, AllFormats)
	}

	return f, nil
}

// Document is the JSON and YAML envelope.
type Document struct {
	Findings []finding.Finding `json:"findings"`
}

// Write renders fs to w in format f.
func Write(w io.Writer, f Format, fs []finding.Finding, opts ...TextOpt) error {
	switch f {
	case FormatJSON:
		return JSON(w, fs)
	case FormatYAML:
		return YAML(w, fs)
	case FormatText:
		return Text(w, fs, opts...)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// JSON writes fs as an indented {"findings": [...]} document.
func JSON(w io.Writer, fs []finding.Finding) error {
	if fs == nil {
		fs = []finding.Finding{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(Document{Findings: fs})
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// YAML writes fs as a findings: [...] document.
func YAML(w io.Writer, fs []finding.Finding) error {
	if fs == nil {
		fs = []finding.Finding{}
	}

	b, err := yaml.Marshal(Document{Findings: fs})
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	_, err = w.Write(b)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}
