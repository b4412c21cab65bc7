package condition

import (
	"errors"
	"fmt"
)

// ErrInvalidCondition is returned for malformed condition specs.
var ErrInvalidCondition = errors.New("invalid condition")

// Spec is the declarative form of a [Condition], as written in
// configuration files. Exactly one field must be set.
type Spec struct {
	Not *Spec   `json:"not,omitempty" jsonschema:"title=Not"`
	Has string  `json:"has,omitempty" jsonschema:"title=Has Attribute"`
	CEL string  `json:"cel,omitempty" jsonschema:"title=CEL Expression"`
	All []*Spec `json:"all,omitempty" jsonschema:"title=All"`
	Any []*Spec `json:"any,omitempty" jsonschema:"title=Any"`
}

// Build converts s into a [Condition]. A nil spec always matches.
//
//nolint:ireturn // Condition is the abstraction being built.
func (s *Spec) Build() (Condition, error) {
	if s == nil {
		return All(), nil
	}

	set := 0
	for _, ok := range []bool{s.Has != "", s.CEL != "", s.Not != nil, s.All != nil, s.Any != nil} {
		if ok {
			set++
		}
	}

	if set != 1 {
		return nil, fmt.Errorf("%w: exactly one of has, all, any, not, cel must be set", ErrInvalidCondition)
	}

	switch {
	case s.Has != "":
		return Has(s.Has), nil

	case s.CEL != "":
		return CEL(s.CEL)

	case s.Not != nil:
		c, err := s.Not.Build()
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}

		return Not(c), nil

	case s.All != nil:
		cs, err := buildAll("all", s.All)
		if err != nil {
			return nil, err
		}

		return All(cs...), nil
	}

	cs, err := buildAll("any", s.Any)
	if err != nil {
		return nil, err
	}

	return Any(cs...), nil
}

// Tags returns every attribute tag named by a "has" in s.
func (s *Spec) Tags() []string {
	if s == nil {
		return nil
	}

	tags := []string{}
	if s.Has != "" {
		tags = append(tags, s.Has)
	}

	tags = append(tags, s.Not.Tags()...)
	for _, c := range append(append([]*Spec{}, s.All...), s.Any...) {
		tags = append(tags, c.Tags()...)
	}

	return tags
}

func buildAll(op string, specs []*Spec) ([]Condition, error) {
	cs := make([]Condition, 0, len(specs))
	for i, spec := range specs {
		if spec == nil {
			return nil, fmt.Errorf("%s[%d]: %w: empty condition", op, i, ErrInvalidCondition)
		}

		c, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", op, i, err)
		}

		cs = append(cs, c)
	}

	return cs, nil
}
