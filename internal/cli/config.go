package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/depfence/pkg/lint"
)

// ConfigArgs select the configuration files.
type ConfigArgs struct {
	PolicyFile     string
	RepoConfigFile string
}

func (ca *ConfigArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ca.PolicyFile, "config", "c", "",
		"Path to the policy set, default is depfence.yaml at the repo root")
	cmd.Flags().StringVar(&ca.RepoConfigFile, "repo-config", "",
		"Path to the repo config, default is depfence.repo.yaml or dep-fence.config.json at the repo root")

	for _, name := range []string{"config", "repo-config"} {
		err := cmd.MarkFlagFilename(name, "yaml", "yml", "json")
		if err != nil {
			panic(fmt.Errorf("mark %s flag: %w", name, err))
		}
	}
}

func (ca *ConfigArgs) LintConfig(colored bool) lint.Config {
	return lint.Config{
		PolicyFile:     ca.PolicyFile,
		RepoConfigFile: ca.RepoConfigFile,
		Color:          colored,
	}
}

// pathArg returns the first positional argument, or ".".
func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return "."
}
