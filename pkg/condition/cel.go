package condition

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/macropower/depfence/pkg/attrs"
	"github.com/macropower/depfence/pkg/expr"
)

// celCondition matches packages for which a CEL expression is true.
type celCondition struct {
	program    cel.Program
	expression string
}

// CEL compiles expression into a [Condition]. An evaluation error or a
// non-bool result does not match.
func CEL(expression string) (Condition, error) {
	program, err := expr.Default().Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCondition, err)
	}

	return &celCondition{program: program, expression: expression}, nil
}

// MustCEL is like [CEL] but panics on error.
func MustCEL(expression string) Condition {
	c, err := CEL(expression)
	if err != nil {
		panic(err)
	}

	return c
}

func (c *celCondition) Evaluate(meta *attrs.PackageMeta) Result {
	justification := "packages matching '" + c.expression + "'"

	matched, err := expr.EvalBool(c.program, meta.Vars())
	if err != nil {
		slog.Debug("CEL condition did not evaluate",
			slog.String("package", meta.Name),
			slog.String("expression", c.expression),
			slog.Any("error", err),
		)

		return Result{Justification: justification}
	}

	return Result{Matched: matched, Justification: justification}
}
