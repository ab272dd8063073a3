package ui

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/loanwalk/pkg/demo"
)

var errNotPositive = errors.New("must be greater than zero")

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form, falling back to accessible prompts without a TTY.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// parseAmount reads a dollar figure such as "720,000" or "$720000".
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return 0, errors.New("amount is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not an amount: %q", s)
	}
	if v <= 0 {
		return 0, errNotPositive
	}
	return v, nil
}

func validateAmount(s string) error {
	_, err := parseAmount(s)
	return err
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func amountString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// intakeValues holds the form's string fields until they are parsed back
// into an Application.
type intakeValues struct {
	applicant, coApplicant, broker, purpose string
	loan, income, debt, value               string
	term                                    int
	address, suburb, postcode               string
}

func intakeValuesOf(app *demo.Application) *intakeValues {
	return &intakeValues{
		applicant:   app.Applicant,
		coApplicant: app.CoApplicant,
		broker:      app.Broker,
		purpose:     app.Purpose,
		loan:        amountString(app.LoanAmount),
		income:      amountString(app.AnnualIncome),
		debt:        amountString(app.ExistingDebt),
		value:       amountString(app.Property.Value),
		term:        app.TermYears,
		address:     app.Property.Address,
		suburb:      app.Property.Suburb,
		postcode:    app.Property.Postcode,
	}
}

// apply writes v into app. Existing debt may be zero; the other amounts
// must be positive.
func (v *intakeValues) apply(app *demo.Application) error {
	loan, err := parseAmount(v.loan)
	if err != nil {
		return fmt.Errorf("loan amount: %w", err)
	}
	income, err := parseAmount(v.income)
	if err != nil {
		return fmt.Errorf("annual income: %w", err)
	}
	value, err := parseAmount(v.value)
	if err != nil {
		return fmt.Errorf("property value: %w", err)
	}
	debt, err := parseAmount(v.debt)
	if errors.Is(err, errNotPositive) || strings.TrimSpace(v.debt) == "" {
		debt, err = 0, nil
	}
	if err != nil {
		return fmt.Errorf("existing debt: %w", err)
	}

	app.Applicant = strings.TrimSpace(v.applicant)
	app.CoApplicant = strings.TrimSpace(v.coApplicant)
	app.Broker = strings.TrimSpace(v.broker)
	app.Purpose = v.purpose
	app.LoanAmount = loan
	app.AnnualIncome = income
	app.ExistingDebt = debt
	app.TermYears = v.term
	app.Property.Address = strings.TrimSpace(v.address)
	app.Property.Suburb = strings.TrimSpace(v.suburb)
	app.Property.Postcode = strings.TrimSpace(v.postcode)
	app.Property.Value = value
	return nil
}

var purposes = []string{"Owner-occupied purchase", "Investment purchase", "Refinance", "Construction"}

// withCurrent puts cur first when it is not one of opts, so a fixture value
// outside the list stays selectable.
func withCurrent(opts []string, cur string) []string {
	if cur == "" || slices.Contains(opts, cur) {
		return opts
	}
	return append([]string{cur}, opts...)
}

func termOptions(cur int) []huh.Option[int] {
	terms := []int{20, 25, 30}
	if cur > 0 && !slices.Contains(terms, cur) {
		terms = append(terms, cur)
		slices.Sort(terms)
	}
	out := make([]huh.Option[int], len(terms))
	for i, t := range terms {
		out[i] = huh.NewOption(fmt.Sprintf("%d years", t), t)
	}
	return out
}

// RunIntakeForm lets the presenter customise the applicant before a
// walkthrough. app holds the starting values and receives the answers.
func RunIntakeForm(app *demo.Application) error {
	v := intakeValuesOf(app)

	form := newForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Loan application").
				Description("Every value is mock data. Leave a field as is to keep the fixture."),
			huh.NewInput().Title("Applicant").Value(&v.applicant).Validate(validateRequired),
			huh.NewInput().Title("Co-applicant").Value(&v.coApplicant),
			huh.NewInput().Title("Broker").Value(&v.broker).Validate(validateRequired),
			huh.NewSelect[string]().
				Title("Purpose").
				Options(huh.NewOptions(withCurrent(purposes, v.purpose)...)...).
				Value(&v.purpose),
		),
		huh.NewGroup(
			huh.NewInput().Title("Loan amount").Value(&v.loan).Validate(validateAmount),
			huh.NewSelect[int]().
				Title("Term").
				Options(termOptions(v.term)...).
				Value(&v.term),
			huh.NewInput().Title("Annual income").Value(&v.income).Validate(validateAmount),
			huh.NewInput().Title("Existing debt").Value(&v.debt),
		),
		huh.NewGroup(
			huh.NewInput().Title("Property address").Value(&v.address).Validate(validateRequired),
			huh.NewInput().Title("Suburb").Value(&v.suburb).Validate(validateRequired),
			huh.NewInput().Title("Postcode").Value(&v.postcode),
			huh.NewInput().Title("Valuation").Value(&v.value).Validate(validateAmount),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("intake form: %w", err)
	}
	return v.apply(app)
}
