package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/depfence/pkg/rule"
)

// ListRulesParams defines parameters for the list_rules tool.
type ListRulesParams struct{}

// RuleInfo describes a registered rule.
type RuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListRulesResult contains the registered rules.
type ListRulesResult struct {
	Message   string     `json:"message"`
	Rules     []RuleInfo `json:"rules"`
	RuleCount int        `json:"ruleCount"`
}

func listRules(reg *rule.Registry) ListRulesResult {
	names := reg.Names()

	result := ListRulesResult{
		Rules:     make([]RuleInfo, 0, len(names)),
		RuleCount: len(names),
		Message:   fmt.Sprintf("Found %d rules.", len(names)),
	}
	for _, n := range names {
		result.Rules = append(result.Rules, RuleInfo{Name: n, Description: reg.Describe(n)})
	}

	return result
}

func createListRulesResult(result ListRulesResult) *mcp.CallToolResultFor[ListRulesResult] {
	return &mcp.CallToolResultFor[ListRulesResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: result.Message,
			},
		},
		StructuredContent: result,
	}
}
