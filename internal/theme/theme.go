// Package theme styles command-line output.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for command output titles.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// HintStyle is used for follow-up suggestions.
var HintStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// OutcomeStyle colors a follow, unfollow or pass outcome.
func OutcomeStyle(outcome string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch outcome {
	case "added", "removed", "delivered", "ok", "idle":
		return base.Foreground(ColorGreen)
	case "already_following", "not_found", "skipped", "unreachable", "running":
		return base.Foreground(ColorYellow)
	case "failed", "error", "degraded":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// Outcome renders outcome in its color.
func Outcome(outcome string) string {
	return OutcomeStyle(outcome).Render(outcome)
}

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorBlue).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}
