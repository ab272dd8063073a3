package demo

import (
	"fmt"
	"slices"
)

// IntakeApplication returns a copy of the fixture application.
func IntakeApplication(fx *Fixtures) *Application {
	app := fx.Application
	app.Documents = slices.Clone(fx.Application.Documents)
	return &app
}

// ScoreSuburb computes the weighted suburb score and its light.
func ScoreSuburb(fx *Fixtures) *SuburbScore {
	var sum, weight float64
	for _, f := range fx.Suburb.Factors {
		sum += f.Score * f.Weight
		weight += f.Weight
	}
	var score float64
	if weight > 0 {
		score = sum / weight
	}
	return &SuburbScore{
		Suburb:  fx.Suburb.Name,
		Score:   score,
		Light:   fx.Thresholds.Classify(score),
		Factors: slices.Clone(fx.Suburb.Factors),
	}
}

// AssessImpact adds the application's loan to the suburb exposure.
func AssessImpact(app *Application, fx *Fixtures) *PortfolioImpact {
	p := fx.Portfolio
	after := p.SuburbExposure + app.LoanAmount
	bookAfter := p.BookTotal + app.LoanAmount
	imp := &PortfolioImpact{
		Suburb:             app.Property.Suburb,
		ExposureBefore:     p.SuburbExposure,
		ExposureAfter:      after,
		BookTotal:          bookAfter,
		ConcentrationLimit: p.ConcentrationLimit,
	}
	if p.BookTotal > 0 {
		imp.ShareBefore = p.SuburbExposure / p.BookTotal
	}
	if bookAfter > 0 {
		imp.ShareAfter = after / bookAfter
	}
	imp.OverLimit = p.ConcentrationLimit > 0 && imp.ShareAfter > p.ConcentrationLimit
	return imp
}

// Simulate runs the fixture stress scenarios against the loan.
func Simulate(app *Application, fx *Fixtures) *SimulationResult {
	losses := make([]float64, len(fx.Scenarios))
	for i, s := range fx.Scenarios {
		losses[i] = s.LossRate
	}
	stats := Summarize(losses)
	return &SimulationResult{
		Scenarios:    slices.Clone(fx.Scenarios),
		Stats:        stats,
		ExpectedLoss: stats.Mean * app.LoanAmount,
	}
}

// Decide applies the credit policy. Reasons are listed in the order the
// checks ran; the outcome is the most severe any check produced.
func Decide(app *Application, score *SuburbScore, impact *PortfolioImpact, fx *Fixtures) *DecisionResult {
	pol := fx.Policy
	d := &DecisionResult{
		Outcome:   OutcomeApprove,
		LVR:       LVR(app.LoanAmount, app.Property.Value),
		DTI:       DTI(app.LoanAmount, app.ExistingDebt, app.AnnualIncome),
		Repayment: MonthlyRepayment(app.LoanAmount, pol.AssessmentRate, app.TermYears),
	}
	raise := func(o Outcome, reason string) {
		if o.rank() > d.Outcome.rank() {
			d.Outcome = o
		}
		d.Reasons = append(d.Reasons, reason)
	}

	switch {
	case pol.DeclineLVR > 0 && d.LVR > pol.DeclineLVR:
		raise(OutcomeDecline, fmt.Sprintf("LVR %.1f%% is above the %.0f%% ceiling", d.LVR*100, pol.DeclineLVR*100))
	case pol.ReferLVR > 0 && d.LVR > pol.ReferLVR:
		raise(OutcomeRefer, fmt.Sprintf("LVR %.1f%% needs senior credit sign-off above %.0f%%", d.LVR*100, pol.ReferLVR*100))
	case pol.MaxLVR > 0 && d.LVR > pol.MaxLVR:
		raise(OutcomeApprove, fmt.Sprintf("LVR %.1f%% is above %.0f%%, mortgage insurance applies", d.LVR*100, pol.MaxLVR*100))
		d.Conditions = append(d.Conditions, "Lenders mortgage insurance required")
	default:
		raise(OutcomeApprove, fmt.Sprintf("LVR %.1f%% is within policy", d.LVR*100))
	}

	switch {
	case pol.DeclineDTI > 0 && d.DTI > pol.DeclineDTI:
		raise(OutcomeDecline, fmt.Sprintf("DTI %.1fx is above the %.1fx ceiling", d.DTI, pol.DeclineDTI))
	case pol.MaxDTI > 0 && d.DTI > pol.MaxDTI:
		raise(OutcomeRefer, fmt.Sprintf("DTI %.1fx is above the %.1fx serviceability limit", d.DTI, pol.MaxDTI))
	default:
		raise(OutcomeApprove, fmt.Sprintf("DTI %.1fx is within policy", d.DTI))
	}

	if score != nil {
		switch score.Light {
		case LightRed:
			raise(OutcomeRefer, fmt.Sprintf("%s scores red (%.0f)", score.Suburb, score.Score))
		case LightAmber:
			raise(OutcomeApprove, fmt.Sprintf("%s scores amber (%.0f)", score.Suburb, score.Score))
			d.Conditions = append(d.Conditions, "Full valuation with suburb commentary")
		default:
			raise(OutcomeApprove, fmt.Sprintf("%s scores green (%.0f)", score.Suburb, score.Score))
		}
	}

	if impact != nil && impact.OverLimit {
		raise(OutcomeRefer, fmt.Sprintf("suburb share %.2f%% would exceed the %.2f%% limit", impact.ShareAfter*100, impact.ConcentrationLimit*100))
	}

	for _, doc := range app.Documents {
		switch doc.Status {
		case DocMismatch:
			d.Conditions = append(d.Conditions, "Resolve mismatch: "+doc.Name)
			d.Reasons = append(d.Reasons, fmt.Sprintf("%s does not match the declaration", doc.Name))
		case DocPending:
			d.Conditions = append(d.Conditions, "Provide: "+doc.Name)
		}
	}
	return d
}
