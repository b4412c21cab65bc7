package cli

import (
	"image/color"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// ColorSchemeFunc is the help and error color scheme. Severity colors match
// the text report: errors are red, rules and flags are purple.
func ColorSchemeFunc(c lipgloss.LightDarkFunc) fang.ColorScheme {
	base := c(charmtone.Charcoal, charmtone.Ash)
	subtle := c(charmtone.Squid, charmtone.Oyster)
	accent := charmtone.Charple

	return fang.ColorScheme{
		Base:           base,
		Title:          accent,
		Codeblock:      c(charmtone.Salt, lipgloss.Color("#2F2E36")),
		Program:        accent,
		Command:        accent,
		DimmedArgument: subtle,
		Comment:        subtle,
		Flag:           c(lipgloss.Color("#0CB37F"), charmtone.Guac),
		Argument:       base,
		Description:    base,
		FlagDefault:    c(charmtone.Smoke, charmtone.Squid),
		QuotedString:   c(charmtone.Coral, charmtone.Salmon),
		ErrorHeader: [2]color.Color{
			charmtone.Butter,
			charmtone.Cherry,
		},
	}
}
