package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/depfence/pkg/lint"
	"github.com/macropower/depfence/pkg/mcp"
)

type ServeMCPArgs struct {
	*RootArgs
	ConfigArgs

	Address string
}

func NewServeMCPCmd(rootArgs *RootArgs) *cobra.Command {
	sa := &ServeMCPArgs{RootArgs: rootArgs}

	cmd := &cobra.Command{
		Use:   "serve-mcp [path]",
		Short: "Serve the lint and list_rules tools over the Model Context Protocol",
		Long: `Serve-mcp starts an MCP server exposing the lint and list_rules tools. Without
--address the server speaks over stdio; otherwise it serves streamable HTTP.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// MCP clients own stdout, so config errors are never colored.
			l := lint.New(sa.LintConfig(false))

			s, err := mcp.NewServer(sa.Address, l, pathArg(args))
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}

			return s.Serve(cmd.Context()) //nolint:wrapcheck // Already wrapped by mcp.
		},
	}

	sa.ConfigArgs.AddFlags(cmd)
	cmd.Flags().StringVar(&sa.Address, "address", "", "Serve streamable HTTP at this address instead of stdio")

	bindEnvVars(cmd)

	return cmd
}
