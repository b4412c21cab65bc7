package lint

import (
	"fmt"

	"github.com/macropower/depfence/pkg/policy"
	"github.com/macropower/depfence/pkg/rule"
)

// Problem is a policy reference that cannot run.
type Problem struct {
	Policy  string `json:"policy"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Policy, p.Rule, p.Message)
}

// Check reports rule references that are not registered and inline rules
// that failed to compile, in policy order.
func Check(policies []*policy.Policy, reg *rule.Registry) []Problem {
	var problems []Problem

	for _, p := range policies {
		for _, ref := range p.Rules {
			switch {
			case ref.Custom != nil:
				if ref.Err != nil {
					problems = append(problems, Problem{
						Policy:  p.ID,
						Rule:    ref.String(),
						Message: ref.Err.Error(),
					})
				}

			default:
				if _, ok := reg.Lookup(ref.Name); ok {
					continue
				}

				msg := "unknown rule"
				if s := reg.Suggest(ref.Name); s != "" {
					msg = fmt.Sprintf("unknown rule, did you mean %q?", s)
				}

				problems = append(problems, Problem{
					Policy:  p.ID,
					Rule:    ref.Name,
					Message: msg,
				})
			}
		}
	}

	return problems
}
