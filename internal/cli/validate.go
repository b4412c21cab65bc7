package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/depfence/pkg/lint"
)

// ErrInvalidPolicySet is returned when a policy set loads but references
// rules that cannot run.
var ErrInvalidPolicySet = errors.New("invalid policy set")

type ValidateArgs struct {
	*RootArgs
	ConfigArgs
}

func NewValidateCmd(rootArgs *RootArgs) *cobra.Command {
	va := &ValidateArgs{RootArgs: rootArgs}

	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate the policy set and repo config without running any rules",
		Long: `Validate loads the policy set and repo config, checks them against their schemas,
and reports rule names that are not registered and custom expressions that do not compile.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := lint.New(va.LintConfig(isTerminal(cmd.ErrOrStderr())))

			s, err := l.Load(cmd.Context(), pathArg(args))
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped by lint.
			}

			out := cmd.OutOrStdout()

			problems := lint.Check(s.Policies, l.Registry())
			for _, p := range problems {
				mustN(fmt.Fprintln(out, p.String()))
			}
			if len(problems) > 0 {
				return fmt.Errorf("%w: %d problems", ErrInvalidPolicySet, len(problems))
			}

			source := s.PolicyFile
			if source == "" {
				source = "built-in policy set"
			}

			mustN(fmt.Fprintf(out, "%s is valid (%d policies)\n", source, len(s.Policies)))

			return nil
		},
	}

	va.ConfigArgs.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
