package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
)

// minMarkdownWidth keeps glamour from wrapping into a one-word column.
const minMarkdownWidth = 20

// MarkdownRenderer renders guided-step descriptions with glamour. It
// rebuilds the underlying renderer only when the width changes.
type MarkdownRenderer struct {
	width    int
	style    string
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer that wraps at width. style is a
// glamour standard style name; empty picks one from the terminal
// background.
func NewMarkdownRenderer(width int, style string) *MarkdownRenderer {
	m := &MarkdownRenderer{style: style}
	m.SetWidth(width)
	return m
}

// Width returns the current wrap width.
func (m *MarkdownRenderer) Width() int { return m.width }

// SetWidth changes the wrap width.
func (m *MarkdownRenderer) SetWidth(width int) {
	width = max(width, minMarkdownWidth)
	if m.renderer != nil && width == m.width {
		return
	}
	m.width = width

	styleOpt := glamour.WithAutoStyle()
	if m.style != "" {
		styleOpt = glamour.WithStandardStyle(m.style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		debug.Warn("ui: markdown renderer: %v", err)
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Render returns md rendered for the terminal, or md itself if glamour is
// unavailable or fails.
func (m *MarkdownRenderer) Render(md string) string {
	if m == nil || m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		debug.Warn("ui: rendering markdown: %v", err)
		return md
	}
	return strings.Trim(out, "\n")
}
