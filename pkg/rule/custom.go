package rule

import (
	"errors"
	"fmt"

	"github.com/macropower/depfence/pkg/finding"
)

const (
	// FailedRuleName is the rule of the finding that replaces a failed
	// custom check.
	FailedRuleName = "custom-rule-failed"

	// DefaultCustomID identifies custom checks declared without an ID.
	DefaultCustomID = "custom"
)

var errNoRun = errors.New("no run function")

// Custom is an inline check attached to a single policy.
type Custom struct {
	Run func(ctx *Context) ([]finding.Finding, error)
	ID  string
}

// Name returns the ID, or [DefaultCustomID].
func (c *Custom) Name() string {
	if c.ID == "" {
		return DefaultCustomID
	}

	return c.ID
}

// Invoke runs the check. A returned error or a panic produces exactly one
// [FailedRuleName] finding instead of the check's output, and failed is
// true. Findings without a rule are attributed to the check's ID.
func (c *Custom) Invoke(ctx *Context) (fs []finding.Finding, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			fs, failed = []finding.Finding{c.failure(ctx, fmt.Errorf("panic: %v", r))}, true
		}
	}()

	if c.Run == nil {
		return []finding.Finding{c.failure(ctx, errNoRun)}, true
	}

	out, err := c.Run(ctx)
	if err != nil {
		return []finding.Finding{c.failure(ctx, err)}, true
	}

	for i := range out {
		if out[i].Rule == "" {
			out[i].Rule = c.Name()
		}
	}

	return out, false
}

func (c *Custom) failure(ctx *Context, err error) finding.Finding {
	return ctx.Finding(FailedRuleName, finding.Error, fmt.Sprintf("custom rule %s failed: %v", c.Name(), err))
}
