package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/protasker/pkg/domain"
)

// palette is one colour scheme. Both themes share the same slots.
type palette struct {
	text     lipgloss.Color
	bright   lipgloss.Color
	dim      lipgloss.Color
	meta     lipgloss.Color
	accent   lipgloss.Color
	danger   lipgloss.Color
	warn     lipgloss.Color
	info     lipgloss.Color
	inactive lipgloss.Color
}

var darkPalette = palette{
	text:     lipgloss.Color("#c0c4d0"),
	bright:   lipgloss.Color("#e4e4ec"),
	dim:      lipgloss.Color("#8890a0"),
	meta:     lipgloss.Color("#505868"),
	accent:   lipgloss.Color("#34d474"),
	danger:   lipgloss.Color("#e06060"),
	warn:     lipgloss.Color("#f59e0b"),
	info:     lipgloss.Color("#60a0e0"),
	inactive: lipgloss.Color("#343c4a"),
}

var lightPalette = palette{
	text:     lipgloss.Color("#2e3440"),
	bright:   lipgloss.Color("#0b0d12"),
	dim:      lipgloss.Color("#5a6272"),
	meta:     lipgloss.Color("#8a92a2"),
	accent:   lipgloss.Color("#15803d"),
	danger:   lipgloss.Color("#b42318"),
	warn:     lipgloss.Color("#b45309"),
	info:     lipgloss.Color("#1d4ed8"),
	inactive: lipgloss.Color("#b8bec9"),
}

var (
	normalStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	dimStyle      lipgloss.Style
	metaStyle     lipgloss.Style
	accentStyle   lipgloss.Style
	errorStyle    lipgloss.Style
	titleStyle    lipgloss.Style

	helpKeyStyle   lipgloss.Style
	helpLabelStyle lipgloss.Style

	inputPromptStyle      lipgloss.Style
	inputPlaceholderStyle lipgloss.Style

	sectionHeaderStyle lipgloss.Style

	// statusColors drives the task status badges.
	statusColors map[domain.TaskStatus]lipgloss.Color

	currentPalette palette
)

func init() {
	applyTheme(domain.ThemeLight)
}

// applyTheme rebuilds every package style from the theme's palette.
func applyTheme(t domain.Theme) {
	p := lightPalette
	if t == domain.ThemeDark {
		p = darkPalette
	}
	currentPalette = p

	normalStyle = lipgloss.NewStyle().Foreground(p.text)
	selectedStyle = lipgloss.NewStyle().Foreground(p.bright).Bold(true)
	dimStyle = lipgloss.NewStyle().Foreground(p.dim)
	metaStyle = lipgloss.NewStyle().Foreground(p.meta)
	accentStyle = lipgloss.NewStyle().Foreground(p.accent)
	errorStyle = lipgloss.NewStyle().Foreground(p.danger)
	titleStyle = lipgloss.NewStyle().Foreground(p.accent).Bold(true)

	helpKeyStyle = lipgloss.NewStyle().Foreground(p.dim)
	helpLabelStyle = lipgloss.NewStyle().Foreground(p.meta)

	inputPromptStyle = lipgloss.NewStyle().Foreground(p.accent).Bold(true)
	inputPlaceholderStyle = lipgloss.NewStyle().Foreground(p.inactive)

	sectionHeaderStyle = lipgloss.NewStyle().Foreground(p.meta)

	statusColors = map[domain.TaskStatus]lipgloss.Color{
		domain.StatusToDo:       p.info,
		domain.StatusInProgress: p.warn,
		domain.StatusDone:       p.accent,
	}
}

// StatusStyle returns a bold style coloured for the task status.
func StatusStyle(s domain.TaskStatus) lipgloss.Style {
	if c, ok := statusColors[s]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(currentPalette.meta).Bold(true)
}

// StatusBadge renders "[In Progress]" in the status colour.
func StatusBadge(s domain.TaskStatus) string {
	if s == "" {
		return ""
	}
	return StatusStyle(s).Render("[" + string(s) + "]")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins help entries with two spaces, the way every screen shows them.
func helpBar(entries ...string) string {
	out := ""
	for i, e := range entries {
		if i > 0 {
			out += "  "
		}
		out += e
	}
	return out
}
