package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/macropower/depfence/pkg/log"
	"github.com/macropower/depfence/pkg/report"
	"github.com/macropower/depfence/pkg/rule"
	"github.com/macropower/depfence/pkg/rules"
)

type RulesArgs struct {
	*RootArgs

	Format string
}

type ruleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewRulesCmd(rootArgs *RootArgs) *cobra.Command {
	ra := &RulesArgs{RootArgs: rootArgs}

	cmd := &cobra.Command{
		Use:          "rules",
		Short:        "List the rules that policies can reference",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(ra.Format)
			if err != nil {
				return fmt.Errorf("%w: %w", log.ErrInvalidArgument, err)
			}

			return writeRules(cmd.OutOrStdout(), rules.NewRegistry(), format)
		},
	}

	cmd.Flags().StringVarP(&ra.Format, "format", "f", string(report.FormatText),
		"Output format, one of: [text json]")

	bindEnvVars(cmd)

	return cmd
}

func writeRules(w io.Writer, reg *rule.Registry, format report.Format) error {
	names := reg.Names()

	infos := make([]ruleInfo, 0, len(names))
	for _, n := range names {
		infos = append(infos, ruleInfo{Name: n, Description: reg.Describe(n)})
	}

	if format != report.FormatText {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(infos)
		if err != nil {
			return fmt.Errorf("encode rules: %w", err)
		}

		return nil
	}

	r := lipgloss.NewRenderer(w)
	if !isTerminal(w) {
		r.SetColorProfile(termenv.Ascii)
	}

	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}

	nameStyle := r.NewStyle().Bold(true).Width(width + 2)

	var b strings.Builder
	for _, info := range infos {
		b.WriteString(nameStyle.Render(info.Name) + info.Description + "\n")
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}
