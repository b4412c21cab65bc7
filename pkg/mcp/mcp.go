package mcp

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

const (
	name         = "depfence"
	instructions = `MCP Server 'depfence' checks the packages of a JavaScript/TypeScript monorepo against dependency and build-configuration policies.

When to use these tools:
- Checking whether package.json dependency placement (dependencies, peerDependencies, devDependencies) follows repository policy
- Checking tsconfig, tsup and package exports hygiene before publishing
- Verifying that an edit to a manifest or tsconfig resolved a finding

REQUIRED workflow:
1. Use 'lint' with a directory inside the repository (e.g., ".", "./packages/ui")
2. STOP and READ every finding: the rule, the package, the message and the reason ("because")
3. Use 'list_rules' when you need to know what a rule checks
4. After editing files, call 'lint' again to confirm the finding is gone
`
)

func newFindingSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "A single rule result for one package.",
		Properties: map[string]*jsonschema.Schema{
			"packageName": {
				Type:        "string",
				Description: "The package.json name of the package.",
			},
			"packageDir": {
				Type:        "string",
				Description: "The absolute directory of the package.",
			},
			"rule": {
				Type:        "string",
				Description: "The rule that produced the finding.",
			},
			"severity": {
				Type:        "string",
				Description: "One of info, warn or error.",
				Enum:        []any{"info", "warn", "error"},
			},
			"message": {
				Type:        "string",
				Description: "What is wrong.",
			},
			"because": {
				Type:        "string",
				Description: "Why the policy applies to the package.",
			},
		},
		Required: []string{"packageName", "packageDir", "rule", "severity", "message"},
	}
}
