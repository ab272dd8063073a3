package demo

import (
	"github.com/vanderheijden86/loanwalk/pkg/debug"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

// Field names one slot of a Record.
type Field string

const (
	FieldApplication Field = "application"
	FieldSuburb      Field = "suburb"
	FieldPortfolio   Field = "portfolio"
	FieldSimulation  Field = "simulation"
	FieldDecision    Field = "decision"
)

// Producer is the guided step that fills a field. Fields are listed in
// dependency order.
var producers = []struct {
	field Field
	step  flow.Step
}{
	{FieldApplication, flow.StepApplicationIntake},
	{FieldSuburb, flow.StepTrafficLight},
	{FieldPortfolio, flow.StepPortfolioImpact},
	{FieldSimulation, flow.StepRiskSimulation},
	{FieldDecision, flow.StepDecision},
}

// Fields lists every field in dependency order.
func Fields() []Field {
	out := make([]Field, len(producers))
	for i, p := range producers {
		out[i] = p.field
	}
	return out
}

// ProducerOf returns the step that fills f.
func ProducerOf(f Field) (flow.Step, bool) {
	for _, p := range producers {
		if p.field == f {
			return p.step, true
		}
	}
	return 0, false
}

// Record is the business state built up during a walkthrough. Each field is
// nil until its producing step runs.
type Record struct {
	Application *Application      `json:"application,omitempty"`
	Suburb      *SuburbScore      `json:"suburb,omitempty"`
	Decision    *DecisionResult   `json:"decision,omitempty"`
	Portfolio   *PortfolioImpact  `json:"portfolio,omitempty"`
	Simulation  *SimulationResult `json:"simulation,omitempty"`
}

// Patch is a partial update. Nil fields leave the record alone.
type Patch struct {
	Application *Application
	Suburb      *SuburbScore
	Decision    *DecisionResult
	Portfolio   *PortfolioImpact
	Simulation  *SimulationResult
}

// Merge copies every non-nil field of p into r.
func (r *Record) Merge(p Patch) {
	if p.Application != nil {
		r.Application = p.Application
	}
	if p.Suburb != nil {
		r.Suburb = p.Suburb
	}
	if p.Decision != nil {
		r.Decision = p.Decision
	}
	if p.Portfolio != nil {
		r.Portfolio = p.Portfolio
	}
	if p.Simulation != nil {
		r.Simulation = p.Simulation
	}
}

// Reset clears every field.
func (r *Record) Reset() {
	*r = Record{}
}

// Has reports whether f is filled.
func (r *Record) Has(f Field) bool {
	switch f {
	case FieldApplication:
		return r.Application != nil
	case FieldSuburb:
		return r.Suburb != nil
	case FieldPortfolio:
		return r.Portfolio != nil
	case FieldSimulation:
		return r.Simulation != nil
	case FieldDecision:
		return r.Decision != nil
	}
	return false
}

// Filled lists the filled fields in dependency order.
func (r *Record) Filled() []Field {
	var out []Field
	for _, p := range producers {
		if r.Has(p.field) {
			out = append(out, p.field)
		}
	}
	return out
}

// Enter fills every empty field whose producing step is at or before step,
// so jumping ahead leaves the record as if the skipped steps had run.
// It returns the fields it filled.
func (r *Record) Enter(step flow.Step, fx *Fixtures) []Field {
	var filled []Field
	for _, p := range producers {
		if p.step > step || r.Has(p.field) {
			continue
		}
		r.Merge(r.produce(p.field, fx))
		filled = append(filled, p.field)
	}
	debug.LogIf(len(filled) > 0, "demo: %s filled %v", step, filled)
	return filled
}

func (r *Record) produce(f Field, fx *Fixtures) Patch {
	switch f {
	case FieldApplication:
		return Patch{Application: IntakeApplication(fx)}
	case FieldSuburb:
		return Patch{Suburb: ScoreSuburb(fx)}
	case FieldPortfolio:
		return Patch{Portfolio: AssessImpact(r.application(fx), fx)}
	case FieldSimulation:
		return Patch{Simulation: Simulate(r.application(fx), fx)}
	case FieldDecision:
		return Patch{Decision: Decide(r.application(fx), r.Suburb, r.Portfolio, fx)}
	}
	return Patch{}
}

// application returns the record's application, falling back to the
// fixture when a patch cleared or never set it.
func (r *Record) application(fx *Fixtures) *Application {
	if r.Application != nil {
		return r.Application
	}
	return IntakeApplication(fx)
}
