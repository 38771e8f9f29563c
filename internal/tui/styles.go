package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#8BC34A")
	info    = lipgloss.Color("#2196F3")
	warning = lipgloss.Color("#FFC107")
	muted   = lipgloss.Color("#6b7280")
)

// statColors maps the report's stat accents onto terminal colours.
var statColors = map[string]lipgloss.Color{
	"green":  lipgloss.Color("#8BC34A"),
	"blue":   lipgloss.Color("#2196F3"),
	"orange": lipgloss.Color("#FF8A65"),
	"pink":   lipgloss.Color("#F06292"),
}

// Styles groups the lipgloss styles used by the browser.
type Styles struct {
	Title    lipgloss.Style
	Chapter  lipgloss.Style
	Section  lipgloss.Style
	Subtitle lipgloss.Style
	Lead     lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Term     lipgloss.Style
	Mark     lipgloss.Style
	Stat     lipgloss.Style
	Note     lipgloss.Style
	Diagram  lipgloss.Style
	Status   lipgloss.Style
	Input    lipgloss.Style
	Error    lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		Chapter:  lipgloss.NewStyle().Bold(true).Foreground(info),
		Section:  lipgloss.NewStyle().Bold(true).Underline(true),
		Subtitle: lipgloss.NewStyle().Italic(true),
		Lead:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		Label:    lipgloss.NewStyle().Foreground(muted),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Term:     lipgloss.NewStyle().Underline(true).Foreground(info),
		Mark:     lipgloss.NewStyle().Reverse(true),
		Stat:     lipgloss.NewStyle().Bold(true),
		Note:     lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(warning).PaddingLeft(1),
		Diagram:  lipgloss.NewStyle().Foreground(accent),
		Status:   lipgloss.NewStyle().Foreground(muted),
		Input:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(info).Padding(0, 1),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")),
	}
}
