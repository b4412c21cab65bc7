// Package condition implements the predicate algebra that decides which
// packages a policy applies to.
//
// Every combinator evaluates all of its children, so the justification of a
// match can name each contributing condition.
package condition

import (
	"strings"

	"github.com/macropower/depfence/pkg/attrs"
)

// Result is the outcome of evaluating a [Condition].
type Result struct {
	// Justification describes why the condition matched. It may be empty.
	Justification string
	Matched       bool
}

// Condition is a predicate over a package.
type Condition interface {
	Evaluate(meta *attrs.PackageMeta) Result
}

// Func adapts a function to a [Condition].
type Func func(meta *attrs.PackageMeta) Result

func (f Func) Evaluate(meta *attrs.PackageMeta) Result {
	return f(meta)
}

// Has matches packages carrying tag.
func Has(tag string) Condition {
	return Func(func(meta *attrs.PackageMeta) Result {
		return Result{
			Matched:       meta.Attrs.Has(tag),
			Justification: "packages with attribute '" + tag + "'",
		}
	})
}

// Not inverts c.
func Not(c Condition) Condition {
	return Func(func(meta *attrs.PackageMeta) Result {
		r := c.Evaluate(meta)

		inner := r.Justification
		if inner == "" {
			inner = "condition"
		}

		return Result{
			Matched:       !r.Matched,
			Justification: "not (" + inner + ")",
		}
	})
}

// All matches when every child matches. With no children it always
// matches.
func All(cs ...Condition) Condition {
	return Func(func(meta *attrs.PackageMeta) Result {
		matched := true
		parts := []string{}

		for _, c := range cs {
			r := c.Evaluate(meta)
			if !r.Matched {
				matched = false
			}
			if r.Justification != "" {
				parts = append(parts, r.Justification)
			}
		}

		return Result{
			Matched:       matched,
			Justification: strings.Join(parts, " & "),
		}
	})
}

// Any matches when at least one child matches. With no children it never
// matches. Only matching children contribute to the justification.
func Any(cs ...Condition) Condition {
	return Func(func(meta *attrs.PackageMeta) Result {
		matched := false
		parts := []string{}

		for _, c := range cs {
			r := c.Evaluate(meta)
			if !r.Matched {
				continue
			}

			matched = true

			if r.Justification != "" {
				parts = append(parts, r.Justification)
			}
		}

		return Result{
			Matched:       matched,
			Justification: strings.Join(parts, " | "),
		}
	})
}

func IsUI() Condition            { return Has(attrs.UI) }
func IsPublishable() Condition   { return Has(attrs.Publishable) }
func UsesTsup() Condition        { return Has(attrs.UsesTsup) }
func HasTsx() Condition          { return Has(attrs.HasTsx) }
func IsBrowser() Condition       { return Has(attrs.Browser) }
func IsNode() Condition          { return Has(attrs.Node) }
func IsWorker() Condition        { return Has(attrs.Worker) }
func HasSkipLibCheck() Condition { return Has(attrs.SkipLibCheck) }
