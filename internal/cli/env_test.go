package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/depfence/internal/cli"
)

func TestBindEnvVars(t *testing.T) {
	tcs := map[string]struct {
		envVars       map[string]string
		wantLogLevel  string
		wantLogFormat string
		wantConfig    string
		args          []string
	}{
		"environment variables are bound when no args provided": {
			envVars: map[string]string{
				"DEPFENCE_LOG_LEVEL":  "debug",
				"DEPFENCE_LOG_FORMAT": "json",
				"DEPFENCE_CONFIG":     "policies.yaml",
			},
			args:          []string{},
			wantLogLevel:  "debug",
			wantLogFormat: "json",
			wantConfig:    "policies.yaml",
		},
		"command line args take precedence over environment variables": {
			envVars: map[string]string{
				"DEPFENCE_LOG_LEVEL":  "debug",
				"DEPFENCE_LOG_FORMAT": "json",
				"DEPFENCE_CONFIG":     "policies.yaml",
			},
			args:          []string{"--log-level", "error", "--log-format", "text", "--config", "other.yaml"},
			wantLogLevel:  "error",
			wantLogFormat: "text",
			wantConfig:    "other.yaml",
		},
		"partial environment variable override": {
			envVars: map[string]string{
				"DEPFENCE_LOG_LEVEL": "warn",
			},
			args:          []string{"--log-format", "json"},
			wantLogLevel:  "warn",
			wantLogFormat: "json",
		},
		"no environment variables uses defaults": {
			envVars:       map[string]string{},
			args:          []string{},
			wantLogLevel:  "info",
			wantLogFormat: "text",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for key, val := range tc.envVars {
				t.Setenv(key, val)
			}

			cmd := cli.NewRootCmd()
			cmd.SetArgs(tc.args)

			// Parse flags (this triggers environment variable binding).
			err := cmd.ParseFlags(tc.args)
			require.NoError(t, err)

			logLevel, err := cmd.Flags().GetString("log-level")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogLevel, logLevel)

			logFormat, err := cmd.Flags().GetString("log-format")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogFormat, logFormat)

			config, err := cmd.Flags().GetString("config")
			require.NoError(t, err)
			assert.Equal(t, tc.wantConfig, config)
		})
	}
}

// Test that flag usage strings are updated to include environment variable names.
func TestEnvironmentVariableUsageUpdate(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCmd()

	logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, logLevelFlag)
	assert.Contains(t, logLevelFlag.Usage, "$DEPFENCE_LOG_LEVEL")

	configFlag := cmd.Flags().Lookup("repo-config")
	require.NotNil(t, configFlag)
	assert.Contains(t, configFlag.Usage, "$DEPFENCE_REPO_CONFIG")
}

func TestBindEnvVars_Subcommands(t *testing.T) {
	t.Setenv("DEPFENCE_STRICT", "true")
	t.Setenv("DEPFENCE_FORMAT", "json")

	cmd := cli.NewRootCmd()

	for _, path := range [][]string{{"lint"}, {"rules"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err)

		format, err := sub.Flags().GetString("format")
		require.NoError(t, err)
		assert.Equal(t, "json", format, path)
	}

	lintCmd, _, err := cmd.Find([]string{"lint"})
	require.NoError(t, err)

	strict, err := lintCmd.Flags().GetBool("strict")
	require.NoError(t, err)
	assert.True(t, strict)

	usage := lintCmd.Flags().Lookup("strict").Usage
	assert.Contains(t, usage, "$DEPFENCE_STRICT")
	assert.Equal(t, 1, strings.Count(usage, "$DEPFENCE_STRICT"))
}
