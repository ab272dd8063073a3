package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/loanwalk/pkg/demo"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS
// ══════════════════════════════════════════════════════════════════════════════

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
	SpaceLG = 4
	SpaceXL = 6
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Badge backgrounds
	ColorGreenBg = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorAmberBg = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
	ColorRedBg   = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorInfoBg  = lipgloss.AdaptiveColor{Light: "#D1ECF1", Dark: "#1A3344"}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle frames each screen's body.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight).
			Padding(0, SpaceXS)

	// GuidePanelStyle frames the guided overlay.
	GuidePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, SpaceXS)
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// ══════════════════════════════════════════════════════════════════════════════

// RenderLightBadge returns a traffic-light badge such as " AMBER ".
func RenderLightBadge(l demo.Light) string {
	var fg, bg lipgloss.AdaptiveColor
	switch l {
	case demo.LightGreen:
		fg, bg = ColorSuccess, ColorGreenBg
	case demo.LightAmber:
		fg, bg = ColorWarning, ColorAmberBg
	case demo.LightRed:
		fg, bg = ColorDanger, ColorRedBg
	default:
		fg, bg = ColorMuted, ColorBgSubtle
	}
	label := strings.ToUpper(string(l))
	if label == "" {
		label = "????"
	}
	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(label)
}

// RenderOutcomeBadge returns a decision badge such as " REFER ".
func RenderOutcomeBadge(o demo.Outcome) string {
	var fg, bg lipgloss.AdaptiveColor
	switch o {
	case demo.OutcomeApprove:
		fg, bg = ColorSuccess, ColorGreenBg
	case demo.OutcomeRefer:
		fg, bg = ColorInfo, ColorInfoBg
	case demo.OutcomeDecline:
		fg, bg = ColorDanger, ColorRedBg
	default:
		fg, bg = ColorMuted, ColorBgSubtle
	}
	label := strings.ToUpper(string(o))
	if label == "" {
		label = "PENDING"
	}
	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(label)
}

// RenderDocBadge returns a one-cell verification marker.
func RenderDocBadge(s demo.DocumentStatus) string {
	switch s {
	case demo.DocVerified:
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render("✓")
	case demo.DocPending:
		return lipgloss.NewStyle().Foreground(ColorWarning).Render("…")
	case demo.DocMismatch:
		return lipgloss.NewStyle().Foreground(ColorDanger).Bold(true).Render("!")
	default:
		return lipgloss.NewStyle().Foreground(ColorMuted).Render("·")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// METRIC VISUALIZATION
// ══════════════════════════════════════════════════════════════════════════════

// RenderMiniBar renders a mini horizontal bar for a value between 0 and 1
func RenderMiniBar(value float64, width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	value = min(max(value, 0), 1)
	filled := min(int(value*float64(width)), width)

	var barColor lipgloss.AdaptiveColor
	switch {
	case value >= 0.7:
		barColor = t.Green
	case value >= 0.45:
		barColor = t.Amber
	default:
		barColor = t.Red
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(barColor).Render(bar)
}

// RenderShareBar renders share against limit: filled up to share, with the
// cells past the limit drawn in the danger color.
func RenderShareBar(share, limit float64, width int) string {
	if width <= 0 || limit <= 0 {
		return ""
	}
	// The bar spans twice the limit so "over" is visible.
	scale := 2 * limit
	filled := min(int(share/scale*float64(width)+0.5), width)
	limitAt := width / 2

	var b strings.Builder
	ok := lipgloss.NewStyle().Foreground(ColorSuccess)
	over := lipgloss.NewStyle().Foreground(ColorDanger)
	for i := 0; i < width; i++ {
		switch {
		case i == limitAt:
			b.WriteString(lipgloss.NewStyle().Foreground(ColorText).Render("│"))
		case i < filled && i < limitAt:
			b.WriteString(ok.Render("█"))
		case i < filled:
			b.WriteString(over.Render("█"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(ColorMuted).Render("░"))
		}
	}
	return b.String()
}

// RenderPercent formats a ratio as a percentage with one decimal.
func RenderPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}

// RenderSubtleDivider renders a more subtle divider using dots
func RenderSubtleDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("·", width))
}
