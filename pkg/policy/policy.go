// Package policy provides the runtime form of a policy: a condition that
// selects packages, the rules to run on them, and how to report the result.
package policy

import (
	"errors"
	"fmt"

	"github.com/macropower/depfence/api/v1beta1/policysets"
	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/condition"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/rule"
)

// ErrInvalidPolicy is returned by [FromSet] for policies that cannot be built.
var ErrInvalidPolicy = errors.New("invalid policy")

// Policy is a named, justified group of rules.
type Policy struct {
	// When selects the packages the policy applies to. A nil condition
	// matches every package.
	When condition.Condition
	// Options are per-rule options, keyed by rule name.
	Options map[string]rule.Options
	// SeverityOverride replaces the severity of findings, keyed by the
	// finding's rule.
	SeverityOverride map[string]finding.Severity
	ID               string
	// Because explains the policy. When empty, the condition's
	// justification is used instead.
	Because string
	Rules   []Ref
}

// Ref is a reference to a registered rule or an inline custom rule.
type Ref struct {
	Custom *rule.Custom
	// Err is set when an inline rule failed to compile.
	Err  error
	Name string
}

// Named returns a [Ref] to a registered rule.
func Named(name string) Ref {
	return Ref{Name: name}
}

// CustomRef returns a [Ref] to an inline rule.
func CustomRef(c *rule.Custom) Ref {
	return Ref{Custom: c}
}

func (r Ref) String() string {
	if r.Custom != nil {
		return r.Custom.Name()
	}

	return r.Name
}

// Justification returns the reason reported for findings of p on a package
// matched with res.
func (p *Policy) Justification(res condition.Result) string {
	if p.Because != "" {
		return p.Because
	}

	return res.Justification
}

// Evaluate reports whether p applies to the package.
func (p *Policy) Evaluate(meta *attrs.PackageMeta) condition.Result {
	if p.When == nil {
		return condition.Result{Matched: true}
	}

	return p.When.Evaluate(meta)
}

// FromSet builds runtime policies from a policy set, in order.
func FromSet(ps *policysets.PolicySet) ([]*Policy, error) {
	out := make([]*Policy, 0, len(ps.Policies))

	for i, spec := range ps.Policies {
		p, err := fromSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("%w: policies[%d] %q: %w", ErrInvalidPolicy, i, spec.ID, err)
		}

		out = append(out, p)
	}

	return out, nil
}

// Default returns the built-in policies.
func Default() []*Policy {
	ps, err := FromSet(policysets.Default())
	if err != nil {
		panic(fmt.Sprintf("build default policies: %v", err))
	}

	return ps
}

func fromSpec(spec *policysets.Policy) (*Policy, error) {
	when, err := spec.When.Build()
	if err != nil {
		return nil, fmt.Errorf("when: %w", err)
	}

	p := &Policy{
		ID:               spec.ID,
		Because:          spec.Because,
		When:             when,
		SeverityOverride: spec.SeverityOverride,
		Options:          make(map[string]rule.Options, len(spec.Options)),
		Rules:            make([]Ref, 0, len(spec.Rules)),
	}

	for name, opts := range spec.Options {
		p.Options[name] = rule.Options(opts)
	}

	for _, ref := range spec.Rules {
		if ref.Custom == nil {
			p.Rules = append(p.Rules, Named(ref.Name))

			continue
		}

		sev := finding.Error
		if ref.Custom.Severity != nil {
			sev = *ref.Custom.Severity
		}

		id := ref.Custom.ID
		if id == "" {
			id = rule.DefaultCustomID
		}

		cr := rule.NewCELRule(id, ref.Custom.Expression, ref.Custom.Message, sev)
		p.Rules = append(p.Rules, Ref{Custom: cr.Custom(), Err: cr.Err()})
	}

	return p, nil
}
