package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/report"
)

// LintParams defines parameters for the lint tool.
type LintParams struct {
	Path        string `json:"path,omitempty"`
	MinSeverity string `json:"minSeverity,omitempty"`
}

// LintResult contains the result of a lint run.
type LintResult struct {
	Error        string            `json:"error,omitempty"`
	RunID        string            `json:"runId,omitempty"`
	RepoRoot     string            `json:"repoRoot,omitempty"`
	Message      string            `json:"message"`
	Findings     []finding.Finding `json:"findings"`
	FindingCount int               `json:"findingCount"`
	PackageCount int               `json:"packageCount"`
}

// createLintResult creates the MCP tool result from a LintResult.
func createLintResult(result LintResult) *mcp.CallToolResultFor[LintResult] {
	if result.Findings == nil {
		result.Findings = []finding.Finding{}
	}

	result.FindingCount = len(result.Findings)

	switch {
	case result.Error != "":
		result.Message = "Lint failed: " + result.Error
	case result.FindingCount == 0:
		result.Message = fmt.Sprintf("All %d packages passed policy checks.", result.PackageCount)
	default:
		names, _ := finding.GroupByPackage(result.Findings)
		result.Message = report.Summary(result.Findings, len(names)) + "."
	}

	return &mcp.CallToolResultFor[LintResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: result.Message,
			},
		},
		StructuredContent: result,
		IsError:           result.Error != "",
	}
}

// filterSeverity returns the findings at or above min.
func filterSeverity(fs []finding.Finding, minimum finding.Severity) []finding.Finding {
	out := make([]finding.Finding, 0, len(fs))
	for _, f := range fs {
		if f.Severity >= minimum {
			out = append(out, f)
		}
	}

	return out
}
