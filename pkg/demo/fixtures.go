package demo

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
)

//go:embed fixtures/default.yaml
var defaultFixturesYAML []byte

// ErrInvalidFixtures is returned when a fixture file fails validation.
var ErrInvalidFixtures = errors.New("invalid fixtures")

// Default traffic-light thresholds, used when a fixture file leaves them out.
const (
	DefaultGreenThreshold = 70
	DefaultAmberThreshold = 45
)

// Source is one inbound feed shown on the pipeline screen.
type Source struct {
	Name    string `yaml:"name" json:"name"`
	Records int    `yaml:"records" json:"records"`
	Status  string `yaml:"status" json:"status"`
}

// SuburbFixture is the raw suburb data before scoring.
type SuburbFixture struct {
	Name    string   `yaml:"name"`
	Factors []Factor `yaml:"factors"`
}

// Thresholds maps a suburb score to a light.
type Thresholds struct {
	Green float64 `yaml:"green"`
	Amber float64 `yaml:"amber"`
}

// Policy holds the credit policy limits the decision applies.
type Policy struct {
	MaxLVR         float64 `yaml:"max_lvr"`
	ReferLVR       float64 `yaml:"refer_lvr"`
	DeclineLVR     float64 `yaml:"decline_lvr"`
	MaxDTI         float64 `yaml:"max_dti"`
	DeclineDTI     float64 `yaml:"decline_dti"`
	AssessmentRate float64 `yaml:"assessment_rate"`
}

// PortfolioFixture is the existing book before this loan.
type PortfolioFixture struct {
	BookTotal          float64 `yaml:"book_total"`
	SuburbExposure     float64 `yaml:"suburb_exposure"`
	ConcentrationLimit float64 `yaml:"concentration_limit"`
}

// Fixtures is the complete mock data set for one walkthrough.
type Fixtures struct {
	Application Application      `yaml:"application"`
	Pipeline    []Source         `yaml:"pipeline"`
	Suburb      SuburbFixture    `yaml:"suburb"`
	Thresholds  Thresholds       `yaml:"thresholds"`
	Policy      Policy           `yaml:"policy"`
	Portfolio   PortfolioFixture `yaml:"portfolio"`
	Scenarios   []Scenario       `yaml:"scenarios"`
	NextSteps   []string         `yaml:"next_steps"`
}

// DefaultFixtures returns the embedded fixture set.
func DefaultFixtures() *Fixtures {
	fx, err := ParseFixtures(defaultFixturesYAML)
	if err != nil {
		// The embedded file is covered by tests.
		panic(fmt.Sprintf("demo: embedded fixtures: %v", err))
	}
	return fx
}

// LoadFixtures reads fixtures from path. An empty path returns the
// embedded defaults.
func LoadFixtures(path string) (*Fixtures, error) {
	defer debug.LogEnterExit("demo.LoadFixtures")()
	if path == "" {
		return DefaultFixtures(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	fx, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fx, nil
}

// ParseFixtures decodes and validates a fixture document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	fx.applyDefaults()
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// SaveFixtures writes fx to path as YAML, creating parent directories.
func SaveFixtures(path string, fx *Fixtures) error {
	if err := fx.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating fixtures directory: %w", err)
		}
	}
	data, err := yaml.Marshal(fx)
	if err != nil {
		return fmt.Errorf("marshaling fixtures: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing fixtures: %w", err)
	}
	return nil
}

func (fx *Fixtures) applyDefaults() {
	if fx.Thresholds.Green == 0 && fx.Thresholds.Amber == 0 {
		fx.Thresholds = Thresholds{Green: DefaultGreenThreshold, Amber: DefaultAmberThreshold}
	}
	if fx.Suburb.Name == "" {
		fx.Suburb.Name = fx.Application.Property.Suburb
	}
	if fx.Application.TermYears == 0 {
		fx.Application.TermYears = 30
	}
}

// Validate checks the values the producers divide by or compare against.
func (fx *Fixtures) Validate() error {
	var problems []error
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	app := fx.Application
	if app.LoanAmount <= 0 {
		bad("application.loan_amount must be positive")
	}
	if app.Property.Value <= 0 {
		bad("application.property.value must be positive")
	}
	if app.AnnualIncome <= 0 {
		bad("application.annual_income must be positive")
	}
	if app.TermYears <= 0 {
		bad("application.term_years must be positive")
	}
	if fx.Thresholds.Green <= fx.Thresholds.Amber {
		bad("thresholds.green (%v) must be above thresholds.amber (%v)", fx.Thresholds.Green, fx.Thresholds.Amber)
	}
	var weight float64
	for _, f := range fx.Suburb.Factors {
		if f.Score < 0 || f.Score > 100 {
			bad("suburb factor %q: score %v outside 0..100", f.Name, f.Score)
		}
		if f.Weight < 0 {
			bad("suburb factor %q: negative weight", f.Name)
		}
		weight += f.Weight
	}
	if weight <= 0 {
		bad("suburb.factors must carry a positive total weight")
	}
	if len(fx.Scenarios) == 0 {
		bad("scenarios must not be empty")
	}
	for _, s := range fx.Scenarios {
		if s.LossRate < 0 || s.LossRate > 1 {
			bad("scenario %q: loss_rate %v outside 0..1", s.Name, s.LossRate)
		}
	}
	if fx.Portfolio.BookTotal <= 0 {
		bad("portfolio.book_total must be positive")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidFixtures, errors.Join(problems...))
}
