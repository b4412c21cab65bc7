package rule

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/macropower/depfence/pkg/expr"
	"github.com/macropower/depfence/pkg/finding"
)

// CELRule is a custom check written as a CEL expression.
//
// The expression is evaluated with the package variables described in
// [expr] and must return either:
//   - a bool: true reports a violation
//   - a list<string>: a non-empty list reports a violation, and each item
//     is appended to the message as "\n- item"
//
// Examples:
//   - !has(manifest.repository)
//   - deps.filter(d, d.startsWith("@internal/") && !(d in peers))
type CELRule struct {
	program    cel.Program
	compileErr error

	ID         string
	Expression string
	Message    string
	Severity   finding.Severity
}

// NewCELRule compiles expression. A compile error does not prevent
// construction; it is returned by [CELRule.Err] and reported every time the
// check runs.
func NewCELRule(id, expression, message string, sev finding.Severity) *CELRule {
	r := &CELRule{
		ID:         id,
		Expression: expression,
		Message:    message,
		Severity:   sev,
	}

	r.program, r.compileErr = expr.Default().Compile(expression)
	if r.compileErr != nil {
		r.compileErr = fmt.Errorf("rule %q: %w", id, r.compileErr)
	}

	return r
}

// Err returns the compile error, if any.
func (r *CELRule) Err() error {
	return r.compileErr
}

// Custom returns the check as a [Custom].
func (r *CELRule) Custom() *Custom {
	return &Custom{ID: r.ID, Run: r.run}
}

func (r *CELRule) run(ctx *Context) ([]finding.Finding, error) {
	if r.compileErr != nil {
		return nil, r.compileErr
	}

	out, err := expr.Eval(r.program, ctx.Meta.Vars())
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped by expr.
	}

	message := r.Message
	if message == "" {
		message = "custom rule " + r.ID + " violated"
	}

	if b, ok := out.(types.Bool); ok {
		if !b {
			return nil, nil
		}

		return []finding.Finding{ctx.Finding(r.ID, r.Severity, message)}, nil
	}

	offenders, err := expr.AsStrings(out)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped by expr.
	}
	if len(offenders) == 0 {
		return nil, nil
	}

	return []finding.Finding{
		ctx.Finding(r.ID, r.Severity, message+"\n- "+strings.Join(offenders, "\n- ")),
	}, nil
}
