package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vanderheijden86/loanwalk/pkg/demo"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

func screenAt(step flow.Step) screen {
	fx := demo.DefaultFixtures()
	rec := &demo.Record{}
	rec.Enter(step, fx)
	return screen{theme: TestTheme(), step: step, record: rec, fx: fx, width: 100}
}

func TestEveryTabHasAScreen(t *testing.T) {
	for _, step := range flow.Steps() {
		if body := renderScreen(screenAt(step)); strings.TrimSpace(body) == "" {
			t.Errorf("%s: empty screen", step)
		}
	}
}

func TestScreensRevealDetailOnLaterSteps(t *testing.T) {
	tests := []struct {
		before, after flow.Step
		detail        string
	}{
		{flow.StepApplicationIntake, flow.StepDocumentVerification, "Credit card statement"},
		{flow.StepDataPipeline, flow.StepDataEnrichment, "Loan to value"},
		{flow.StepTrafficLight, flow.StepSuburbDeepDive, "Lending concentration"},
		{flow.StepPortfolioImpact, flow.StepRiskSimulation, "Combined stress"},
		{flow.StepDecision, flow.StepDecisionRationale, "Rationale"},
		{flow.StepExecutiveSummary, flow.StepNextSteps, "Order final valuation inspection"},
	}
	for _, tt := range tests {
		if strings.Contains(renderScreen(screenAt(tt.before)), tt.detail) {
			t.Errorf("%s should not show %q yet", tt.before, tt.detail)
		}
		if !strings.Contains(renderScreen(screenAt(tt.after)), tt.detail) {
			t.Errorf("%s should show %q", tt.after, tt.detail)
		}
	}
}

func TestScreensTolerateEmptyRecord(t *testing.T) {
	fx := demo.DefaultFixtures()
	for _, tab := range flow.Tabs() {
		sc := screen{theme: TestTheme(), step: tab.Anchor(), record: &demo.Record{}, fx: fx, width: 80}
		_ = renderScreen(sc)
	}
}

func TestDecisionScreen(t *testing.T) {
	body := renderScreen(screenAt(flow.StepDecision))
	for _, want := range []string{"APPROVE", "81.8%", "Lenders mortgage insurance required", "Resolve mismatch: Credit card statement"} {
		if !strings.Contains(body, want) {
			t.Errorf("decision screen missing %q:\n%s", want, body)
		}
	}
}

func TestExecutiveSummary(t *testing.T) {
	fx := demo.DefaultFixtures()
	rec := &demo.Record{}
	rec.Enter(flow.StepExecutiveSummary, fx)

	md := ExecutiveSummary(rec, fx)
	for _, want := range []string{
		"# Executive summary",
		"APP-20417: $720,000 for Jordan Ellery",
		"Suburb scores AMBER at 53.2.",
		"stays within the 2.0% limit",
		"Decision: APPROVE at LVR 81.8% with 3 conditions.",
		"## Conditions",
		"1. Obtain updated credit card statement and reassess limit",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}
}

func TestExecutiveSummaryPartialRecord(t *testing.T) {
	fx := demo.DefaultFixtures()
	md := ExecutiveSummary(&demo.Record{}, fx)
	if !strings.Contains(md, "APP-20417") {
		t.Error("summary should fall back to the fixture application")
	}
	if strings.Contains(md, "Decision:") || strings.Contains(md, "## Conditions") {
		t.Error("summary should omit results not produced yet")
	}
}

func TestRenderTranscript(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTranscript(&buf, nil, 80); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if n := strings.Count(out, "== ["); n != flow.StepCount() {
		t.Errorf("Expected %d step blocks, got %d", flow.StepCount(), n)
	}
	// Blocks appear in guided order.
	last := -1
	for _, s := range flow.Steps() {
		i := strings.Index(out, "] "+s.Title()+"  (")
		if i < 0 {
			t.Errorf("transcript missing %s", s)
			continue
		}
		if i < last {
			t.Errorf("%s printed out of order", s)
		}
		last = i
	}
	if !strings.Contains(out, "(Underwriting · tab 6 Decision)") {
		t.Error("Expected decision block to name its group and tab")
	}
	if !strings.Contains(out, "Walkthrough complete") {
		t.Error("Expected the complete screen at the end")
	}
}

func TestRenderShareBar(t *testing.T) {
	bar := RenderShareBar(0.01, 0.02, 20)
	if n := strings.Count(bar, "█"); n != 5 {
		t.Errorf("Expected 5 filled cells for half the limit, got %d", n)
	}
	if !strings.Contains(bar, "│") {
		t.Error("Expected a limit marker")
	}
	if RenderShareBar(0.5, 0, 20) != "" {
		t.Error("Expected empty bar without a limit")
	}
}
