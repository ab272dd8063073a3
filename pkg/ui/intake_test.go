package ui

import (
	"testing"

	"github.com/vanderheijden86/loanwalk/pkg/demo"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"720000", 720000, false},
		{"$720,000", 720000, false},
		{" 1_250_000 ", 1250000, false},
		{"99.5", 99.5, false},
		{"", 0, true},
		{"0", 0, true},
		{"-5", 0, true},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIntakeValuesRoundTrip(t *testing.T) {
	fx := demo.DefaultFixtures()
	app := demo.IntakeApplication(fx)

	v := intakeValuesOf(app)
	v.applicant = "  Riley Moss "
	v.loan = "$650,000"
	v.debt = ""
	v.term = 25

	if err := v.apply(app); err != nil {
		t.Fatal(err)
	}
	if app.Applicant != "Riley Moss" {
		t.Errorf("Applicant = %q", app.Applicant)
	}
	if app.LoanAmount != 650000 {
		t.Errorf("LoanAmount = %v", app.LoanAmount)
	}
	if app.ExistingDebt != 0 {
		t.Errorf("ExistingDebt = %v, want 0 for a blank answer", app.ExistingDebt)
	}
	if app.TermYears != 25 {
		t.Errorf("TermYears = %d", app.TermYears)
	}
	if app.Property.Value != fx.Application.Property.Value {
		t.Errorf("unchanged valuation moved: %v", app.Property.Value)
	}
	if len(app.Documents) != len(fx.Application.Documents) {
		t.Error("documents should survive the form")
	}
}

func TestIntakeApplyRejectsBadAmount(t *testing.T) {
	app := demo.IntakeApplication(demo.DefaultFixtures())
	v := intakeValuesOf(app)
	v.income = "a lot"

	if err := v.apply(app); err == nil {
		t.Fatal("Expected an error for a bad income")
	}
	if app.AnnualIncome != 168000 {
		t.Errorf("failed apply should not modify the application, income = %v", app.AnnualIncome)
	}
}

func TestFormOptions(t *testing.T) {
	if got := withCurrent(purposes, "Bridging"); got[0] != "Bridging" || len(got) != len(purposes)+1 {
		t.Errorf("withCurrent should prepend an unknown value, got %v", got)
	}
	if got := withCurrent(purposes, purposes[1]); len(got) != len(purposes) {
		t.Errorf("withCurrent should keep a known value in place, got %v", got)
	}
	opts := termOptions(35)
	if len(opts) != 4 || opts[3].Value != 35 {
		t.Errorf("termOptions should add the current term, got %v", opts)
	}
}
