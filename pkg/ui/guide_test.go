package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

func newTestGuide() GuideModel {
	return NewGuideModel(Theme{Renderer: lipgloss.DefaultRenderer()}, 80)
}

func TestGuideProgress(t *testing.T) {
	g := newTestGuide()

	tests := []struct {
		step   flow.Step
		prefix string
		filled int
	}{
		{flow.StepWelcome, "[1/14]", 1},
		{flow.StepDataEnrichment, "[5/14]", 5},
		{flow.StepComplete, "[14/14]", guideBarWidth},
	}
	for _, tt := range tests {
		got := g.Progress(flow.GuidedViewOf(tt.step))
		if !strings.HasPrefix(got, tt.prefix) && !strings.Contains(got, tt.prefix) {
			t.Errorf("%s: progress %q missing %q", tt.step, got, tt.prefix)
		}
		if n := strings.Count(got, "█"); n != tt.filled {
			t.Errorf("%s: expected %d filled cells, got %d", tt.step, tt.filled, n)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != guideBarWidth {
			t.Errorf("%s: bar is %d cells, want %d", tt.step, n, guideBarWidth)
		}
	}
}

func TestGuideViewContent(t *testing.T) {
	g := newTestGuide()

	view := g.View(flow.GuidedViewOf(flow.StepTrafficLight))
	for _, want := range []string{"Traffic Light", "ANALYSIS", "p back", "n next"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected guide to contain %q:\n%s", want, view)
		}
	}
}

func TestGuideHintsAtEnds(t *testing.T) {
	g := newTestGuide()

	first := g.View(flow.GuidedViewOf(flow.StepWelcome))
	if strings.Contains(first, "p back") {
		t.Error("First step should not offer 'back'")
	}
	last := g.View(flow.GuidedViewOf(flow.StepComplete))
	if strings.Contains(last, "n next") {
		t.Error("Last step should not offer 'next'")
	}
	if !strings.Contains(last, "start over") {
		t.Error("Last step should offer to start over")
	}
}

func TestGuideHidden(t *testing.T) {
	g := newTestGuide()
	g.Toggle()
	if g.Visible() {
		t.Fatal("Expected hidden after toggle")
	}
	if v := g.View(flow.GuidedViewOf(flow.StepDecision)); v != "" {
		t.Errorf("Hidden guide rendered %q", v)
	}
	g.SetVisible(true)
	if !g.Visible() {
		t.Error("Expected visible after SetVisible(true)")
	}
}

func TestGuideWidth(t *testing.T) {
	g := newTestGuide()
	g.SetWidth(60)

	view := g.View(flow.GuidedViewOf(flow.StepDocumentVerification))
	for i, line := range strings.Split(view, "\n") {
		if w := lipgloss.Width(line); w > 60 {
			t.Errorf("line %d is %d cells wide, want <= 60", i, w)
		}
	}
	if got := g.markdown.Width(); got != 56 {
		t.Errorf("markdown width = %d, want 56", got)
	}
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer(5, "notty")
	if r.Width() != minMarkdownWidth {
		t.Errorf("Expected width clamped to %d, got %d", minMarkdownWidth, r.Width())
	}

	out := r.Render("Every figure is **mock data**.")
	if !strings.Contains(out, "mock") {
		t.Errorf("Rendered markdown lost its text: %q", out)
	}
	if strings.HasPrefix(out, "\n") || strings.HasSuffix(out, "\n") {
		t.Errorf("Rendered markdown should be trimmed: %q", out)
	}

	var nilRenderer *MarkdownRenderer
	if got := nilRenderer.Render("plain"); got != "plain" {
		t.Errorf("nil renderer should pass text through, got %q", got)
	}
}

func TestGuideWrapCapsMarkdown(t *testing.T) {
	g := newTestGuide()
	g.SetWrap(40)
	if got := g.markdown.Width(); got != 40 {
		t.Errorf("markdown width = %d, want 40", got)
	}
	g.SetWidth(30)
	if got := g.markdown.Width(); got != 26 {
		t.Errorf("narrow overlay should win over wrap, got %d", got)
	}
}
