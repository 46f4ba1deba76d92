package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#2EA043"}
	picked = lipgloss.AdaptiveColor{Light: "#116329", Dark: "#7EE787"}
	muted  = lipgloss.AdaptiveColor{Light: "#57606A", Dark: "#8B949E"}
	danger = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
)

var (
	HeadingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	CaptionStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true)

	// CursorStyle marks the line under the cursor.
	CursorStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	// PickedStyle marks header cells already chosen for output.
	PickedStyle = lipgloss.NewStyle().
			Foreground(picked)

	// GutterStyle renders sheet row numbers.
	GutterStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(5).
			Align(lipgloss.Right)

	// ColumnTagStyle renders column letters such as "C".
	ColumnTagStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(3)

	KeyHintStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	FrameStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(accent).
			PaddingLeft(2)
)
