// Package policysets provides the PolicySet configuration kind, the list of
// policies that depfence evaluates against every package.
package policysets

import (
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/depfence/api"
	"github.com/macropower/depfence/api/v1beta1"
	"github.com/macropower/depfence/pkg/condition"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/main.go -kind policyset -o policysets.v1beta1.json

// Kind is the kind of a [PolicySet].
const Kind = "PolicySet"

// FileNames are the names searched for at the repo root, in order.
var FileNames = []string{"depfence.yaml", "depfence.yml"}

var (
	//go:embed policyset.yaml
	defaultYAML []byte

	//go:embed policysets.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for policy sets.
	ValidKinds = []string{Kind}

	// DefaultValidator validates policy sets against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/policysets.v1beta1.json", schemaJSON)

	ErrInvalidRuleRef = errors.New("invalid rule reference")

	// Compile-time interface checks.
	_ v1beta1.Object = (*PolicySet)(nil)
)

// PolicySet is the policy configuration file.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type PolicySet struct {
	v1beta1.TypeMeta `json:",inline"`
	// Policies are evaluated in order against every package.
	Policies []*Policy `json:"policies" jsonschema:"title=Policies"`
}

// Policy selects packages with When and applies Rules to them.
type Policy struct {
	When *condition.Spec `json:"when,omitempty" jsonschema:"title=When"`
	// Options are per-rule options, keyed by rule name.
	Options map[string]map[string]any `json:"options,omitempty" jsonschema:"title=Options"`
	// SeverityOverride replaces the severity of findings, keyed by the
	// finding's rule.
	SeverityOverride map[string]finding.Severity `json:"severityOverride,omitempty" jsonschema:"title=Severity Override"`
	ID               string                      `json:"id" jsonschema:"title=ID"`
	Because          string                      `json:"because" jsonschema:"title=Because"`
	Rules            []RuleRef                   `json:"rules" jsonschema:"title=Rules"`
}

// RuleRef is either the name of a registered rule or an inline custom rule.
type RuleRef struct {
	Custom *CustomRule `json:"custom,omitempty"`
	Name   string      `json:"-"`
}

// CustomRule is a rule defined by a CEL expression. The expression returns
// true, or a non-empty list of strings, when the package violates the rule.
type CustomRule struct {
	ID         string `json:"id,omitempty" jsonschema:"title=ID"`
	Expression string `json:"expr" jsonschema:"title=Expression"`
	Message    string `json:"message,omitempty" jsonschema:"title=Message"`
	// Severity defaults to error.
	Severity *finding.Severity `json:"severity,omitempty" jsonschema:"title=Severity"`
}

// Named returns a [RuleRef] to a registered rule.
func Named(name string) RuleRef {
	return RuleRef{Name: name}
}

// String returns the name of the rule, or the id of a custom rule.
func (r RuleRef) String() string {
	if r.Custom != nil {
		if r.Custom.ID == "" {
			return "custom"
		}

		return r.Custom.ID
	}

	return r.Name
}

// UnmarshalYAML accepts a string or a {custom: {...}} mapping.
func (r *RuleRef) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any

	err := unmarshal(&raw)
	if err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		r.Name = v

		return nil

	case map[string]any:
		var obj struct {
			Custom *CustomRule `json:"custom"`
		}

		err = unmarshal(&obj)
		if err != nil {
			return err
		}
		if obj.Custom == nil {
			return fmt.Errorf("%w: expected a rule name or {custom: ...}", ErrInvalidRuleRef)
		}

		r.Custom = obj.Custom

		return nil
	}

	return fmt.Errorf("%w: unexpected %T", ErrInvalidRuleRef, raw)
}

// MarshalYAML writes named rules as plain strings.
func (r RuleRef) MarshalYAML() (any, error) {
	if r.Custom != nil {
		return map[string]any{"custom": r.Custom}, nil
	}

	return r.Name, nil
}

func (RuleRef) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("id", &jsonschema.Schema{Type: "string", Title: "ID"})
	props.Set("expr", &jsonschema.Schema{Type: "string", Title: "Expression"})
	props.Set("message", &jsonschema.Schema{Type: "string", Title: "Message"})
	props.Set("severity", finding.Severity(0).JSONSchema())

	wrapper := jsonschema.NewProperties()
	wrapper.Set("custom", &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"expr"},
		AdditionalProperties: jsonschema.FalseSchema,
	})

	return &jsonschema.Schema{
		Title: "Rule",
		OneOf: []*jsonschema.Schema{
			{Type: "string", Description: "Name of a registered rule."},
			{
				Type:                 "object",
				Properties:           wrapper,
				Required:             []string{"custom"},
				AdditionalProperties: jsonschema.FalseSchema,
			},
		},
	}
}

// New creates a new empty [PolicySet].
func New() *PolicySet {
	ps := &PolicySet{}
	ps.EnsureDefaults()

	return ps
}

// Default returns the built-in policy set.
func Default() *PolicySet {
	ps := New()

	err := yaml.Unmarshal(defaultYAML, ps)
	if err != nil {
		panic(fmt.Sprintf("decode default policy set: %v", err))
	}

	ps.EnsureDefaults()

	return ps
}

// DefaultYAML returns the YAML source of [Default].
func DefaultYAML() []byte {
	return defaultYAML
}

// EnsureDefaults initializes nil fields to their default values.
func (ps *PolicySet) EnsureDefaults() {
	ps.Default(Kind)

	if ps.Policies == nil {
		ps.Policies = []*Policy{}
	}
}

func (ps PolicySet) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// WriteDefault writes the default policy set to path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultYAML, force, "policy set")
	if err != nil {
		return fmt.Errorf("write default policy set: %w", err)
	}

	return nil
}
