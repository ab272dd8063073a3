package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

const guideBarWidth = 14

// GuideModel draws the guided overlay. It holds no position of its own;
// View is given the navigator's GuidedView each frame.
type GuideModel struct {
	theme    Theme
	markdown *MarkdownRenderer
	width    int
	wrap     int
	visible  bool
}

// NewGuideModel creates a visible overlay.
func NewGuideModel(theme Theme, width int) GuideModel {
	g := GuideModel{theme: theme, visible: true}
	g.markdown = NewMarkdownRenderer(width, "")
	g.SetWidth(width)
	return g
}

// Visible reports whether the overlay is shown.
func (g GuideModel) Visible() bool { return g.visible }

// SetVisible shows or hides the overlay.
func (g *GuideModel) SetVisible(v bool) { g.visible = v }

// Toggle flips visibility.
func (g *GuideModel) Toggle() { g.visible = !g.visible }

// SetWidth sets the outer width of the overlay.
func (g *GuideModel) SetWidth(width int) {
	g.width = width
	// Border and padding take four cells.
	inner := width - 4
	if g.wrap > 0 {
		inner = min(inner, g.wrap)
	}
	g.markdown.SetWidth(inner)
}

// SetWrap caps the description wrap width. Zero means the overlay width.
func (g *GuideModel) SetWrap(wrap int) {
	g.wrap = max(wrap, 0)
	g.SetWidth(g.width)
}

// Progress returns the "[k/n] ███░░" progress text for v.
func (g GuideModel) Progress(v flow.GuidedView) string {
	r := g.theme.Renderer
	pos := v.Index + 1
	filled := 0
	if v.Total > 0 {
		filled = max(pos*guideBarWidth/v.Total, 1)
	}
	filled = min(filled, guideBarWidth)

	return r.NewStyle().Foreground(g.theme.Subtext).Render(fmt.Sprintf("[%d/%d]", pos, v.Total)) +
		" " +
		r.NewStyle().Foreground(g.theme.Green).Render(strings.Repeat("█", filled)) +
		r.NewStyle().Foreground(g.theme.Muted).Render(strings.Repeat("░", guideBarWidth-filled))
}

// View renders the overlay for v, or "" when hidden.
func (g GuideModel) View(v flow.GuidedView) string {
	if !g.visible {
		return ""
	}
	r := g.theme.Renderer

	group := r.NewStyle().Foreground(g.theme.Subtext).Italic(true).Render(strings.ToUpper(v.Group.Title()))
	title := r.NewStyle().Bold(true).Foreground(g.theme.Primary).Render(v.Title)
	header := lipgloss.JoinHorizontal(lipgloss.Top, g.Progress(v), "  ", group)

	var hints []string
	if !v.First {
		hints = append(hints, "p back")
	}
	if !v.Last {
		hints = append(hints, "n next")
	} else {
		hints = append(hints, "r start over")
	}
	hints = append(hints, "g hide")
	footer := g.theme.MutedText.Render(strings.Join(hints, " · "))

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		title,
		g.markdown.Render(v.Description),
		footer,
	)
	return GuidePanelStyle.Width(max(g.width-2, 0)).Render(body)
}
