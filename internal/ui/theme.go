package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, DoneText                            lipgloss.Style
	Slope, Climber, Flag                          lipgloss.Style

	Border                   lipgloss.Border
	BorderColor              lipgloss.TerminalColor
	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
	SymClimber, SymFlag      string
	BarFull, BarEmpty        string
}

var current = build("classic")

func SetTheme(name string) { current = build(name) }

// Expose what renderers need
func Current() Theme { return current }

// SetColorForcing overrides terminal detection (tests, pipes, --no-color).
func SetColorForcing(force, disable bool) {
	switch {
	case disable:
		lipgloss.SetColorProfile(termenv.Ascii)
	case force:
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

func build(name string) Theme {
	base := lipgloss.NewStyle()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		return Theme{
			Name:         "neon",
			Title:        base.Bold(true).Foreground(lipgloss.Color("13")),
			Muted:        base.Faint(true),
			Accent:       base.Foreground(lipgloss.Color("14")),
			Success:      base.Foreground(lipgloss.Color("10")),
			Error:        base.Foreground(lipgloss.Color("9")).Bold(true),
			Pending:      base.Foreground(lipgloss.Color("11")),
			Selected:     base.Bold(true).Foreground(lipgloss.Color("13")),
			DoneText:     base.Faint(true).Strikethrough(true),
			Slope:        base.Foreground(lipgloss.Color("14")),
			Climber:      base.Bold(true).Foreground(lipgloss.Color("11")),
			Flag:         base.Foreground(lipgloss.Color("13")),
			Border:       lipgloss.RoundedBorder(),
			BorderColor:  lipgloss.Color("13"),
			BoxUnchecked: "◻", BoxChecked: "◼",
			SymDone: "✔", SymPending: "•",
			SymClimber: "@", SymFlag: "⚑",
			BarFull: "█", BarEmpty: "░",
		}
	case "mono":
		return Theme{
			Name:         "mono",
			Title:        base,
			Muted:        base,
			Accent:       base,
			Success:      base,
			Error:        base,
			Pending:      base,
			Selected:     base.Reverse(true),
			DoneText:     base,
			Slope:        base,
			Climber:      base,
			Flag:         base,
			Border:       lipgloss.NormalBorder(),
			BorderColor:  lipgloss.NoColor{},
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymDone: "x", SymPending: "-",
			SymClimber: "@", SymFlag: "F",
			BarFull: "#", BarEmpty: ".",
		}
	default: // classic
		return Theme{
			Name:         "classic",
			Title:        base.Bold(true),
			Muted:        base.Faint(true),
			Accent:       base.Foreground(lipgloss.Color("12")),
			Success:      base.Foreground(lipgloss.Color("42")),
			Error:        base.Foreground(lipgloss.Color("9")).Bold(true),
			Pending:      base.Foreground(lipgloss.Color("214")),
			Selected:     base.Bold(true).Reverse(true),
			DoneText:     base.Faint(true).Strikethrough(true),
			Slope:        base.Foreground(lipgloss.Color("137")),
			Climber:      base.Bold(true).Foreground(lipgloss.Color("214")),
			Flag:         base.Foreground(lipgloss.Color("9")),
			Border:       lipgloss.RoundedBorder(),
			BorderColor:  lipgloss.Color("8"),
			BoxUnchecked: "☐", BoxChecked: "☑",
			SymDone: "✔", SymPending: "•",
			SymClimber: "@", SymFlag: "⚑",
			BarFull: "█", BarEmpty: "░",
		}
	}
}
