package reporter

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#A78BFA")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Danger    = lipgloss.Color("#EF4444")
	Info      = lipgloss.Color("#3B82F6")
	Muted     = lipgloss.Color("#6B7280")
)

// theme holds the styles used by the summary format
type theme struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	path     lipgloss.Style
	size     lipgloss.Style
	category lipgloss.Style
	warning  lipgloss.Style
	ok       lipgloss.Style
	muted    lipgloss.Style
}

// newTheme builds styles bound to w's color profile. With color disabled every
// style renders its input unchanged.
func newTheme(w io.Writer, color bool) theme {
	r := lipgloss.NewRenderer(w)
	if !color {
		plain := r.NewStyle()
		return theme{plain, plain, plain, plain, plain, plain, plain, plain}
	}

	return theme{
		title:    r.NewStyle().Bold(true).Foreground(Primary),
		heading:  r.NewStyle().Foreground(Secondary).Bold(true),
		path:     r.NewStyle().Foreground(Info),
		size:     r.NewStyle().Foreground(Warning),
		category: r.NewStyle().Foreground(Secondary).Italic(true),
		warning:  r.NewStyle().Foreground(Danger).Bold(true),
		ok:       r.NewStyle().Foreground(Success).Bold(true),
		muted:    r.NewStyle().Foreground(Muted),
	}
}
