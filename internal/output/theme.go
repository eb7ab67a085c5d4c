package output

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used when printing results.
type Theme struct {
	Pattern   lipgloss.Style
	Count     lipgloss.Style
	File      lipgloss.Style
	Duplicate lipgloss.Style
	Misc      lipgloss.Style
	Summary   lipgloss.Style
	Dim       lipgloss.Style
	Error     lipgloss.Style
}

// DefaultTheme is the colored theme used on terminals.
func DefaultTheme() Theme {
	return Theme{
		Pattern:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Count:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		File:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Duplicate: lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		Misc:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		Summary:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Error:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

// PlainTheme renders text unchanged, for pipes and files.
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Pattern:   plain,
		Count:     plain,
		File:      plain,
		Duplicate: plain,
		Misc:      plain,
		Summary:   plain,
		Dim:       plain,
		Error:     plain,
	}
}
