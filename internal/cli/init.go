package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/macropower/depfence/api/v1beta1/policysets"
	"github.com/macropower/depfence/pkg/discovery"
)

type InitArgs struct {
	*RootArgs

	Output string
	Force  bool
}

func NewInitCmd(rootArgs *RootArgs) *cobra.Command {
	ia := &InitArgs{RootArgs: rootArgs}

	cmd := &cobra.Command{
		Use:          "init [path]",
		Short:        "Write the default policy set to the repo root",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ia.Output
			if target == "" {
				root, err := discovery.FindRepoRoot(pathArg(args))
				if err != nil {
					return err //nolint:wrapcheck // Already wrapped by discovery.
				}

				target = filepath.Join(root, policysets.FileNames[0])
			}

			err := policysets.WriteDefault(target, ia.Force)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped by policysets.
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), target))

			return nil
		},
	}

	cmd.Flags().StringVarP(&ia.Output, "output", "o", "", "Write to this path instead of the repo root")
	cmd.Flags().BoolVar(&ia.Force, "force", false, "Replace an existing file, keeping a backup")

	bindEnvVars(cmd)

	return cmd
}
