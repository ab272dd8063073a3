// Package flow owns the walkthrough's navigation state.
//
// There is one authoritative position: the current guided Step. Everything a
// navigation surface shows is derived from it:
//
//   - the tab bar sees a Tab and its index (8 coarse stops)
//   - the guided overlay sees the Step, its Group, title and description
//
// Because both views are projections of the same value they cannot drift.
// Peripheral controls move the flow by publishing a Command or a Signal; both
// are closed types that can only carry valid destinations.
package flow

import (
	"fmt"
	"strings"
)

// Tab is a stop on the primary tab bar.
type Tab int

const (
	TabIntro Tab = iota
	TabApplication
	TabPipeline
	TabTrafficLight
	TabPortfolio
	TabDecision
	TabSummary
	TabComplete

	tabCount = int(TabComplete) + 1
)

// Step is a guided walkthrough step. Steps are finer grained than tabs.
type Step int

const (
	StepWelcome Step = iota
	StepApplicationIntake
	StepDocumentVerification
	StepDataPipeline
	StepDataEnrichment
	StepTrafficLight
	StepSuburbDeepDive
	StepPortfolioImpact
	StepRiskSimulation
	StepDecision
	StepDecisionRationale
	StepExecutiveSummary
	StepNextSteps
	StepComplete

	stepCount = int(StepComplete) + 1
)

// Group is the coarse grouping the guided overlay shows above each step.
type Group int

const (
	GroupApplication Group = iota
	GroupAnalysis
	GroupUnderwriting
	GroupOutcome

	groupCount = int(GroupOutcome) + 1
)

type tabDef struct {
	id    string
	title string
	// anchor is where the flow lands when the tab is selected. Every tab
	// must name one; an empty row fails TestTabTableIsTotal.
	anchor Step
}

type stepDef struct {
	id          string
	title       string
	description string
	group       Group
	tab         Tab
}

type groupDef struct {
	id    string
	title string
}

var tabTable = [tabCount]tabDef{
	TabIntro:        {id: "intro", title: "Intro", anchor: StepWelcome},
	TabApplication:  {id: "application", title: "Application", anchor: StepApplicationIntake},
	TabPipeline:     {id: "pipeline", title: "Pipeline", anchor: StepDataPipeline},
	TabTrafficLight: {id: "traffic-light", title: "Traffic Light", anchor: StepTrafficLight},
	TabPortfolio:    {id: "portfolio", title: "Portfolio", anchor: StepPortfolioImpact},
	TabDecision:     {id: "underwriting-decision", title: "Decision", anchor: StepDecision},
	TabSummary:      {id: "summary", title: "Summary", anchor: StepExecutiveSummary},
	TabComplete:     {id: "complete", title: "Complete", anchor: StepComplete},
}

var groupTable = [groupCount]groupDef{
	GroupApplication:  {id: "application", title: "Application"},
	GroupAnalysis:     {id: "analysis", title: "Analysis"},
	GroupUnderwriting: {id: "underwriting", title: "Underwriting"},
	GroupOutcome:      {id: "outcome", title: "Outcome"},
}

var stepTable = [stepCount]stepDef{
	StepWelcome: {
		id:          "welcome",
		title:       "Welcome",
		description: "A walk through one home-loan application, from intake to an executive summary. Every figure on screen is **mock data**.",
		group:       GroupApplication,
		tab:         TabIntro,
	},
	StepApplicationIntake: {
		id:          "application-intake",
		title:       "Application Intake",
		description: "The broker submits the applicant, the property and the requested amount. Intake captures the facts the rest of the flow scores.",
		group:       GroupApplication,
		tab:         TabApplication,
	},
	StepDocumentVerification: {
		id:          "document-verification",
		title:       "Document Verification",
		description: "Payslips, statements and the contract of sale are matched against the declared figures. Mismatches become conditions later.",
		group:       GroupApplication,
		tab:         TabApplication,
	},
	StepDataPipeline: {
		id:          "data-pipeline",
		title:       "Data Pipeline",
		description: "Application data joins bureau, valuation and suburb feeds. Each source lands in a staging area before it is trusted.",
		group:       GroupAnalysis,
		tab:         TabPipeline,
	},
	StepDataEnrichment: {
		id:          "data-enrichment",
		title:       "Data Enrichment",
		description: "Derived fields are added: loan-to-value, debt-to-income and the suburb the property geocodes to.",
		group:       GroupAnalysis,
		tab:         TabPipeline,
	},
	StepTrafficLight: {
		id:          "traffic-light",
		title:       "Traffic Light",
		description: "The suburb gets a single score and a colour. *Green* is business as usual, *amber* asks for a closer look, *red* tightens policy.",
		group:       GroupAnalysis,
		tab:         TabTrafficLight,
	},
	StepSuburbDeepDive: {
		id:          "suburb-deep-dive",
		title:       "Suburb Deep Dive",
		description: "The factors behind the score: price growth, days on market, rental yield and concentration of existing lending.",
		group:       GroupAnalysis,
		tab:         TabTrafficLight,
	},
	StepPortfolioImpact: {
		id:          "portfolio-impact",
		title:       "Portfolio Impact",
		description: "What approving this loan does to exposure in the suburb and across the book.",
		group:       GroupUnderwriting,
		tab:         TabPortfolio,
	},
	StepRiskSimulation: {
		id:          "risk-simulation",
		title:       "Risk Simulation",
		description: "Stress scenarios give a spread of loss rates. The screen shows the mean, the spread and the 95th percentile.",
		group:       GroupUnderwriting,
		tab:         TabPortfolio,
	},
	StepDecision: {
		id:          "underwriting-decision",
		title:       "Underwriting Decision",
		description: "Approve, refer or decline, with the conditions attached.",
		group:       GroupUnderwriting,
		tab:         TabDecision,
	},
	StepDecisionRationale: {
		id:          "decision-rationale",
		title:       "Decision Rationale",
		description: "Each reason that moved the decision, in the order it was applied.",
		group:       GroupUnderwriting,
		tab:         TabDecision,
	},
	StepExecutiveSummary: {
		id:          "executive-summary",
		title:       "Executive Summary",
		description: "One screen for the credit committee. Press `y` to copy it.",
		group:       GroupOutcome,
		tab:         TabSummary,
	},
	StepNextSteps: {
		id:          "next-steps",
		title:       "Next Steps",
		description: "Settlement tasks, outstanding conditions and the review date.",
		group:       GroupOutcome,
		tab:         TabSummary,
	},
	StepComplete: {
		id:          "complete",
		title:       "Complete",
		description: "That is the whole flow. Press `r` to start again.",
		group:       GroupOutcome,
		tab:         TabComplete,
	},
}

// Tabs returns every tab in bar order.
func Tabs() []Tab {
	tabs := make([]Tab, tabCount)
	for i := range tabs {
		tabs[i] = Tab(i)
	}
	return tabs
}

// Steps returns every guided step in walkthrough order.
func Steps() []Step {
	steps := make([]Step, stepCount)
	for i := range steps {
		steps[i] = Step(i)
	}
	return steps
}

// Groups returns every guided group in order.
func Groups() []Group {
	groups := make([]Group, groupCount)
	for i := range groups {
		groups[i] = Group(i)
	}
	return groups
}

// TabCount is the number of tabs on the bar.
func TabCount() int { return tabCount }

// StepCount is the number of guided steps.
func StepCount() int { return stepCount }

// Valid reports whether t is one of the defined tabs.
func (t Tab) Valid() bool { return t >= 0 && int(t) < tabCount }

// String returns the wire identifier, e.g. "traffic-light".
func (t Tab) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tab(%d)", int(t))
	}
	return tabTable[t].id
}

// Title returns the label shown on the tab bar.
func (t Tab) Title() string {
	if !t.Valid() {
		return ""
	}
	return tabTable[t].title
}

// Index is the tab's position on the bar.
func (t Tab) Index() int { return int(t) }

// Anchor is the guided step the flow lands on when t is selected.
func (t Tab) Anchor() Step {
	if !t.Valid() {
		return StepWelcome
	}
	return tabTable[t].anchor
}

// Steps returns the guided steps shown under t, in order.
func (t Tab) Steps() []Step {
	var out []Step
	for i, def := range stepTable {
		if def.tab == t {
			out = append(out, Step(i))
		}
	}
	return out
}

// Valid reports whether s is one of the defined steps.
func (s Step) Valid() bool { return s >= 0 && int(s) < stepCount }

// String returns the wire identifier, e.g. "underwriting-decision".
func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepTable[s].id
}

// Title returns the heading shown by the guided overlay.
func (s Step) Title() string {
	if !s.Valid() {
		return ""
	}
	return stepTable[s].title
}

// Description returns the markdown body shown by the guided overlay.
func (s Step) Description() string {
	if !s.Valid() {
		return ""
	}
	return stepTable[s].description
}

// Group returns the guided group s belongs to.
func (s Step) Group() Group {
	if !s.Valid() {
		return GroupApplication
	}
	return stepTable[s].group
}

// Tab returns the tab s is shown under.
func (s Step) Tab() Tab {
	if !s.Valid() {
		return TabIntro
	}
	return stepTable[s].tab
}

// Index is the step's position in the walkthrough.
func (s Step) Index() int { return int(s) }

// Valid reports whether g is one of the defined groups.
func (g Group) Valid() bool { return g >= 0 && int(g) < groupCount }

func (g Group) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Group(%d)", int(g))
	}
	return groupTable[g].id
}

// Title returns the display label for g.
func (g Group) Title() string {
	if !g.Valid() {
		return ""
	}
	return groupTable[g].title
}

// ParseTab resolves a wire identifier to a Tab. Matching ignores case and
// surrounding space.
func ParseTab(id string) (Tab, error) {
	norm := strings.ToLower(strings.TrimSpace(id))
	for i, def := range tabTable {
		if def.id == norm {
			return Tab(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTab, id)
}

// ParseStep resolves a wire identifier to a Step.
func ParseStep(id string) (Step, error) {
	norm := strings.ToLower(strings.TrimSpace(id))
	for i, def := range stepTable {
		if def.id == norm {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, id)
}

// ParseGroup resolves a wire identifier to a Group.
func ParseGroup(id string) (Group, error) {
	norm := strings.ToLower(strings.TrimSpace(id))
	for i, def := range groupTable {
		if def.id == norm {
			return Group(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGroup, id)
}
