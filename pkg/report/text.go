package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/muesli/termenv"

	"github.com/macropower/depfence/pkg/finding"
)

// PassedMessage is printed when there are no findings.
const PassedMessage = "All packages passed policy checks."

var (
	red    = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	yellow = lipgloss.AdaptiveColor{Light: "#C48A00", Dark: "#ECFD65"}
	gray   = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	green  = lipgloss.Color("#04B575")
	purple = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
)

// severityNouns are the singular and plural nouns used in summaries.
var severityNouns = map[finding.Severity][2]string{
	finding.Error: {"error", ""},
	finding.Warn:  {"warning", ""},
	finding.Info:  {"info", "info"},
}

type textOptions struct {
	colored bool
	summary bool
}

// TextOpt configures [Text].
type TextOpt func(*textOptions)

// WithColor enables ANSI colors.
func WithColor(colored bool) TextOpt {
	return func(o *textOptions) {
		o.colored = colored
	}
}

// WithSummary appends a line counting findings by severity.
func WithSummary(summary bool) TextOpt {
	return func(o *textOptions) {
		o.summary = summary
	}
}

type styles struct {
	severity map[finding.Severity]lipgloss.Style
	header   lipgloss.Style
	because  lipgloss.Style
	passed   lipgloss.Style
}

func newStyles(w io.Writer, colored bool) styles {
	r := lipgloss.NewRenderer(w)
	if !colored {
		r.SetColorProfile(termenv.Ascii)
	}

	return styles{
		severity: map[finding.Severity]lipgloss.Style{
			finding.Error: r.NewStyle().Foreground(red).Bold(true),
			finding.Warn:  r.NewStyle().Foreground(yellow).Bold(true),
			finding.Info:  r.NewStyle().Foreground(gray),
		},
		header:  r.NewStyle().Foreground(purple).Bold(true),
		because: r.NewStyle().Foreground(gray),
		passed:  r.NewStyle().Foreground(green),
	}
}

// Text writes findings grouped by package:
//
//	=== @acme/ui ===
//	ERROR ui-in-deps: UI libs should be peerDependencies (not dependencies):
//	- react
//	Because: ...
func Text(w io.Writer, fs []finding.Finding, opts ...TextOpt) error {
	o := &textOptions{}
	for _, opt := range opts {
		opt(o)
	}

	s := newStyles(w, o.colored)

	var b strings.Builder

	if len(fs) == 0 {
		b.WriteString(s.passed.Render(PassedMessage) + "\n")
	}

	order, groups := finding.GroupByPackage(fs)
	for _, pkg := range order {
		b.WriteString("\n" + s.header.Render("=== "+pkg+" ===") + "\n")

		for _, f := range groups[pkg] {
			b.WriteString(s.severity[f.Severity].Render(f.Severity.Label()))
			b.WriteString(" " + f.Rule + ": " + f.Message)

			if f.Because != "" {
				b.WriteString("\n" + s.because.Render("Because:") + " " + f.Because)
			}

			b.WriteString("\n")
		}
	}

	if o.summary && len(fs) > 0 {
		b.WriteString("\n" + Summary(fs, len(order)) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// Summary describes fs in one line, e.g. "3 findings in 2 packages (1
// error, 2 warnings)".
func Summary(fs []finding.Finding, packages int) string {
	counts := finding.Count(fs)

	parts := []string{}
	for _, sev := range []finding.Severity{finding.Error, finding.Warn, finding.Info} {
		if n := counts[sev]; n > 0 {
			noun := severityNouns[sev]
			parts = append(parts, english.Plural(n, noun[0], noun[1]))
		}
	}

	return fmt.Sprintf("%s %s in %s (%s)",
		humanize.Comma(int64(len(fs))),
		english.PluralWord(len(fs), "finding", ""),
		english.Plural(packages, "package", ""),
		strings.Join(parts, ", "),
	)
}
