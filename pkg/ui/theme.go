package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/loanwalk/pkg/demo"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Traffic light
	Green lipgloss.AdaptiveColor
	Amber lipgloss.AdaptiveColor
	Red   lipgloss.AdaptiveColor

	// Decision outcomes
	Approve lipgloss.AdaptiveColor
	Refer   lipgloss.AdaptiveColor
	Decline lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base      lipgloss.Style
	Header    lipgloss.Style
	ActiveTab lipgloss.Style
	Tab       lipgloss.Style

	// Pre-computed text styles, created once instead of per frame.
	MutedText     lipgloss.Style
	InfoText      lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	Label         lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		// Light mode colors keep WCAG AA contrast on white.
		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		Green: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Amber: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Red:   lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},

		Approve: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Refer:   lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Decline: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.ActiveTab = r.NewStyle().
		Foreground(t.Primary).
		Border(lipgloss.ThickBorder(), false, false, true, false).
		BorderForeground(t.Primary).
		Bold(true).
		Padding(0, 1)

	t.Tab = r.NewStyle().
		Foreground(t.Subtext).
		Border(lipgloss.HiddenBorder(), false, false, true, false).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.InfoText = r.NewStyle().Foreground(ColorInfo)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Label = r.NewStyle().Foreground(t.Subtext).Width(22)

	return t
}

// LightColor returns the color for a traffic-light value.
func (t Theme) LightColor(l demo.Light) lipgloss.AdaptiveColor {
	switch l {
	case demo.LightGreen:
		return t.Green
	case demo.LightAmber:
		return t.Amber
	case demo.LightRed:
		return t.Red
	default:
		return t.Subtext
	}
}

// OutcomeColor returns the color and a one-letter icon for a decision.
func (t Theme) OutcomeColor(o demo.Outcome) (string, lipgloss.AdaptiveColor) {
	switch o {
	case demo.OutcomeApprove:
		return "✓", t.Approve
	case demo.OutcomeRefer:
		return "?", t.Refer
	case demo.OutcomeDecline:
		return "✗", t.Decline
	default:
		return "·", t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
