package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/loanwalk/pkg/demo"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

// screen is everything a tab body is drawn from. Screens are pure
// functions of it.
type screen struct {
	theme  Theme
	step   flow.Step
	record *demo.Record
	fx     *demo.Fixtures
	width  int
}

// reached reports whether the walkthrough is at or past s.
func (sc screen) reached(s flow.Step) bool { return sc.step >= s }

func (sc screen) heading(title string) string {
	return sc.theme.PrimaryBold.Render(title)
}

func (sc screen) row(label, value string) string {
	return sc.theme.Label.Render(label) + value
}

func (sc screen) muted(s string) string { return sc.theme.MutedText.Render(s) }

// renderScreen draws the body of the step's tab.
func renderScreen(sc screen) string {
	var body string
	switch sc.step.Tab() {
	case flow.TabIntro:
		body = sc.intro()
	case flow.TabApplication:
		body = sc.application()
	case flow.TabPipeline:
		body = sc.pipeline()
	case flow.TabTrafficLight:
		body = sc.trafficLight()
	case flow.TabPortfolio:
		body = sc.portfolio()
	case flow.TabDecision:
		body = sc.decision()
	case flow.TabSummary:
		body = sc.summary()
	case flow.TabComplete:
		body = sc.complete()
	}
	return body
}

func (sc screen) intro() string {
	app := sc.fx.Application
	lines := []string{
		sc.heading("Loan underwriting walkthrough"),
		"",
		fmt.Sprintf("Application %s from %s, via %s.", app.ID, app.Applicant, app.Broker),
		fmt.Sprintf("%s requested against %s, %s.", FormatMoney(app.LoanAmount), app.Property.Address, app.Property.Suburb),
		"",
		sc.muted("The walkthrough covers:"),
	}
	for _, t := range flow.Tabs() {
		lines = append(lines, fmt.Sprintf("  %d  %s", t.Index()+1, t.Title()))
	}
	lines = append(lines, "", sc.muted("All figures are mock data."))
	return strings.Join(lines, "\n")
}

func (sc screen) application() string {
	app := sc.record.Application
	if app == nil {
		return sc.muted("No application received yet.")
	}
	lines := []string{
		sc.heading("Application " + app.ID),
		"",
		sc.row("Applicant", app.Applicant),
	}
	if app.CoApplicant != "" {
		lines = append(lines, sc.row("Co-applicant", app.CoApplicant))
	}
	lines = append(lines,
		sc.row("Broker", app.Broker),
		sc.row("Purpose", app.Purpose),
		sc.row("Loan amount", FormatMoney(app.LoanAmount)),
		sc.row("Term", fmt.Sprintf("%d years", app.TermYears)),
		sc.row("Annual income", FormatMoney(app.AnnualIncome)),
		sc.row("Monthly expenses", FormatMoney(app.MonthlyExpenses)),
		sc.row("Existing debt", FormatMoney(app.ExistingDebt)),
		sc.row("Security", fmt.Sprintf("%s, %s %s", app.Property.Address, app.Property.Suburb, app.Property.Postcode)),
		sc.row("Valuation", FormatMoney(app.Property.Value)),
	)

	lines = append(lines, "", sc.heading("Documents"))
	if !sc.reached(flow.StepDocumentVerification) {
		lines = append(lines, sc.muted(fmt.Sprintf("%d documents received, not yet checked.", len(app.Documents))))
		return strings.Join(lines, "\n")
	}
	for _, d := range app.Documents {
		line := RenderDocBadge(d.Status) + " " + padRight(d.Name, 28) + sc.muted(string(d.Status))
		if d.Note != "" {
			line += sc.muted("  " + truncate(d.Note, max(sc.width-44, 10)))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (sc screen) pipeline() string {
	lines := []string{sc.heading("Data pipeline"), ""}
	total := 0
	for _, src := range sc.fx.Pipeline {
		total += src.Records
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			padRight(src.Name, 26),
			padRight(fmt.Sprintf("%d", src.Records), 8),
			sc.muted(src.Status)))
	}
	lines = append(lines, sc.muted(fmt.Sprintf("  %d records staged from %d sources", total, len(sc.fx.Pipeline))))

	if !sc.reached(flow.StepDataEnrichment) {
		return strings.Join(lines, "\n")
	}
	app := sc.record.Application
	if app == nil {
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "", sc.heading("Derived fields"),
		sc.row("Loan to value", RenderPercent(demo.LVR(app.LoanAmount, app.Property.Value))),
		sc.row("Debt to income", fmt.Sprintf("%.1fx", demo.DTI(app.LoanAmount, app.ExistingDebt, app.AnnualIncome))),
		sc.row("Geocoded suburb", fmt.Sprintf("%s %s", app.Property.Suburb, app.Property.State)),
	)
	return strings.Join(lines, "\n")
}

func (sc screen) trafficLight() string {
	s := sc.record.Suburb
	if s == nil {
		return sc.muted("Suburb not scored yet.")
	}
	lines := []string{
		sc.heading("Traffic light: " + s.Suburb),
		"",
		fmt.Sprintf("%s  score %.1f  %s", RenderLightBadge(s.Light), s.Score, RenderMiniBar(s.Score/100, 20, sc.theme)),
		sc.muted(fmt.Sprintf("green ≥ %.0f  amber ≥ %.0f  red below", sc.fx.Thresholds.Green, sc.fx.Thresholds.Amber)),
	}
	if !sc.reached(flow.StepSuburbDeepDive) {
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "", sc.heading("Factors"))
	for _, f := range s.Factors {
		lines = append(lines, fmt.Sprintf("  %s %s %s %s",
			padRight(f.Name, 22),
			RenderMiniBar(f.Score/100, 10, sc.theme),
			padRight(fmt.Sprintf("%.0f", f.Score), 4),
			sc.muted(fmt.Sprintf("×%.2f  %s", f.Weight, f.Value))))
	}
	return strings.Join(lines, "\n")
}

func (sc screen) portfolio() string {
	p := sc.record.Portfolio
	if p == nil {
		return sc.muted("Portfolio impact not assessed yet.")
	}
	status := sc.theme.Renderer.NewStyle().Foreground(sc.theme.Green).Render("within limit")
	if p.OverLimit {
		status = sc.theme.Renderer.NewStyle().Foreground(sc.theme.Red).Bold(true).Render("over limit")
	}
	lines := []string{
		sc.heading("Portfolio impact: " + p.Suburb),
		"",
		sc.row("Exposure before", FormatMoney(p.ExposureBefore)),
		sc.row("Exposure after", FormatMoney(p.ExposureAfter)),
		sc.row("Book total", FormatMoney(p.BookTotal)),
		sc.row("Suburb share", fmt.Sprintf("%s → %s", RenderPercent(p.ShareBefore), RenderPercent(p.ShareAfter))),
		sc.row("Concentration limit", fmt.Sprintf("%s  %s", RenderPercent(p.ConcentrationLimit), status)),
		"  " + RenderShareBar(p.ShareAfter, p.ConcentrationLimit, 30),
	}

	if !sc.reached(flow.StepRiskSimulation) || sc.record.Simulation == nil {
		return strings.Join(lines, "\n")
	}
	sim := sc.record.Simulation
	lines = append(lines, "", sc.heading("Stress scenarios"))
	for _, s := range sim.Scenarios {
		lines = append(lines, fmt.Sprintf("  %s %s", padRight(s.Name, 28), RenderPercent(s.LossRate)))
	}
	st := sim.Stats
	lines = append(lines, "",
		sc.row("Mean loss rate", RenderPercent(st.Mean)),
		sc.row("Std deviation", RenderPercent(st.StdDev)),
		sc.row("95th percentile", RenderPercent(st.P95)),
		sc.row("Worst case", RenderPercent(st.Worst)),
		sc.row("Expected loss", FormatMoney(sim.ExpectedLoss)),
	)
	return strings.Join(lines, "\n")
}

func (sc screen) decision() string {
	d := sc.record.Decision
	if d == nil {
		return sc.muted("No decision yet.")
	}
	icon, color := sc.theme.OutcomeColor(d.Outcome)
	lines := []string{
		sc.heading("Underwriting decision"),
		"",
		sc.theme.Renderer.NewStyle().Foreground(color).Bold(true).Render(icon) + " " + RenderOutcomeBadge(d.Outcome),
		"",
		sc.row("Loan to value", RenderPercent(d.LVR)),
		sc.row("Debt to income", fmt.Sprintf("%.1fx", d.DTI)),
		sc.row("Assessed repayment", FormatMoney(d.Repayment)+" / month"),
	}
	if len(d.Conditions) > 0 {
		lines = append(lines, "", sc.heading("Conditions"))
		for _, c := range d.Conditions {
			lines = append(lines, "  • "+c)
		}
	}
	if !sc.reached(flow.StepDecisionRationale) {
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "", sc.heading("Rationale"))
	for i, r := range d.Reasons {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, r))
	}
	return strings.Join(lines, "\n")
}

func (sc screen) summary() string {
	lines := []string{sc.heading("Executive summary"), ""}
	for _, l := range summaryLines(sc.record, sc.fx) {
		lines = append(lines, "  "+l)
	}
	if !sc.reached(flow.StepNextSteps) {
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "", sc.heading("Next steps"))
	for i, s := range sc.fx.NextSteps {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, s))
	}
	lines = append(lines, "", sc.muted("y copies the summary to the clipboard"))
	return strings.Join(lines, "\n")
}

func (sc screen) complete() string {
	filled := sc.record.Filled()
	lines := []string{
		sc.heading("Walkthrough complete"),
		"",
		fmt.Sprintf("%d of %d results produced.", len(filled), len(demo.Fields())),
	}
	if d := sc.record.Decision; d != nil {
		lines = append(lines, "Outcome: "+RenderOutcomeBadge(d.Outcome))
	}
	lines = append(lines, "", sc.muted("r starts over · q quits"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// summaryLines is the plain-text executive summary shared by the summary
// screen and the clipboard copy.
func summaryLines(rec *demo.Record, fx *demo.Fixtures) []string {
	app := rec.Application
	if app == nil {
		app = demo.IntakeApplication(fx)
	}
	out := []string{
		fmt.Sprintf("%s: %s for %s, secured by %s, %s.",
			app.ID, FormatMoney(app.LoanAmount), app.Applicant, app.Property.Address, app.Property.Suburb),
	}
	if s := rec.Suburb; s != nil {
		out = append(out, fmt.Sprintf("Suburb scores %s at %.1f.", strings.ToUpper(string(s.Light)), s.Score))
	}
	if p := rec.Portfolio; p != nil {
		verb := "stays within"
		if p.OverLimit {
			verb = "exceeds"
		}
		out = append(out, fmt.Sprintf("Suburb share moves to %s and %s the %s limit.",
			RenderPercent(p.ShareAfter), verb, RenderPercent(p.ConcentrationLimit)))
	}
	if sim := rec.Simulation; sim != nil {
		out = append(out, fmt.Sprintf("Stress p95 loss rate %s, expected loss %s.",
			RenderPercent(sim.Stats.P95), FormatMoney(sim.ExpectedLoss)))
	}
	if d := rec.Decision; d != nil {
		out = append(out, fmt.Sprintf("Decision: %s at LVR %s with %d conditions.",
			strings.ToUpper(string(d.Outcome)), RenderPercent(d.LVR), len(d.Conditions)))
	}
	return out
}

// ExecutiveSummary returns the summary as markdown, the form copied to the
// clipboard.
func ExecutiveSummary(rec *demo.Record, fx *demo.Fixtures) string {
	var b strings.Builder
	b.WriteString("# Executive summary\n\n")
	for _, l := range summaryLines(rec, fx) {
		b.WriteString("- " + l + "\n")
	}
	if d := rec.Decision; d != nil && len(d.Conditions) > 0 {
		b.WriteString("\n## Conditions\n\n")
		for _, c := range d.Conditions {
			b.WriteString("- " + c + "\n")
		}
	}
	if len(fx.NextSteps) > 0 {
		b.WriteString("\n## Next steps\n\n")
		for i, s := range fx.NextSteps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}
	return b.String()
}
