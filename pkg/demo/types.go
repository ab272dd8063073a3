// Package demo holds the mock business data the walkthrough displays: the
// loan application, the suburb traffic-light score, the portfolio impact, the
// stress simulation and the underwriting decision.
//
// None of it is real. Values come from a fixture file and are filled into a
// Record as the viewer reaches the step that produces them.
package demo

// Property is the security offered for the loan.
type Property struct {
	Address  string  `yaml:"address" json:"address"`
	Suburb   string  `yaml:"suburb" json:"suburb"`
	Postcode string  `yaml:"postcode" json:"postcode"`
	State    string  `yaml:"state" json:"state"`
	Type     string  `yaml:"type" json:"type"`
	Value    float64 `yaml:"value" json:"value"`
}

// DocumentStatus is the verification state of one supporting document.
type DocumentStatus string

const (
	DocVerified DocumentStatus = "verified"
	DocPending  DocumentStatus = "pending"
	DocMismatch DocumentStatus = "mismatch"
)

// Document is one item checked during verification.
type Document struct {
	Name   string         `yaml:"name" json:"name"`
	Status DocumentStatus `yaml:"status" json:"status"`
	Note   string         `yaml:"note,omitempty" json:"note,omitempty"`
}

// Application is what the broker submits.
type Application struct {
	ID              string     `yaml:"id" json:"id"`
	Applicant       string     `yaml:"applicant" json:"applicant"`
	CoApplicant     string     `yaml:"co_applicant,omitempty" json:"coApplicant,omitempty"`
	Broker          string     `yaml:"broker" json:"broker"`
	Purpose         string     `yaml:"purpose" json:"purpose"`
	LoanAmount      float64    `yaml:"loan_amount" json:"loanAmount"`
	TermYears       int        `yaml:"term_years" json:"termYears"`
	AnnualIncome    float64    `yaml:"annual_income" json:"annualIncome"`
	MonthlyExpenses float64    `yaml:"monthly_expenses" json:"monthlyExpenses"`
	ExistingDebt    float64    `yaml:"existing_debt" json:"existingDebt"`
	Property        Property   `yaml:"property" json:"property"`
	Documents       []Document `yaml:"documents" json:"documents"`
}

// Light is the traffic-light colour of a suburb.
type Light string

const (
	LightGreen Light = "green"
	LightAmber Light = "amber"
	LightRed   Light = "red"
)

// Factor is one input to the suburb score, scored 0 to 100.
type Factor struct {
	Name   string  `yaml:"name" json:"name"`
	Value  string  `yaml:"value" json:"value"`
	Score  float64 `yaml:"score" json:"score"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// SuburbScore is the traffic-light result for the security's suburb.
type SuburbScore struct {
	Suburb  string   `json:"suburb"`
	Score   float64  `json:"score"`
	Light   Light    `json:"light"`
	Factors []Factor `json:"factors"`
}

// Outcome is the underwriting decision.
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeRefer   Outcome = "refer"
	OutcomeDecline Outcome = "decline"
)

func (o Outcome) rank() int {
	switch o {
	case OutcomeRefer:
		return 1
	case OutcomeDecline:
		return 2
	}
	return 0
}

// DecisionResult is the underwriting outcome with its working.
type DecisionResult struct {
	Outcome    Outcome  `json:"outcome"`
	LVR        float64  `json:"lvr"`
	DTI        float64  `json:"dti"`
	Repayment  float64  `json:"monthlyRepayment"`
	Conditions []string `json:"conditions"`
	Reasons    []string `json:"reasons"`
}

// PortfolioImpact is what approving the loan does to exposure.
type PortfolioImpact struct {
	Suburb             string  `json:"suburb"`
	ExposureBefore     float64 `json:"exposureBefore"`
	ExposureAfter      float64 `json:"exposureAfter"`
	BookTotal          float64 `json:"bookTotal"`
	ShareBefore        float64 `json:"shareBefore"`
	ShareAfter         float64 `json:"shareAfter"`
	ConcentrationLimit float64 `json:"concentrationLimit"`
	OverLimit          bool    `json:"overLimit"`
}

// Scenario is one stress case with its simulated loss rate.
type Scenario struct {
	Name     string  `yaml:"name" json:"name"`
	LossRate float64 `yaml:"loss_rate" json:"lossRate"`
}

// SimulationStats summarises a set of loss rates.
type SimulationStats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	P95    float64 `json:"p95"`
	Worst  float64 `json:"worst"`
}

// SimulationResult is the risk simulation output.
type SimulationResult struct {
	Scenarios    []Scenario      `json:"scenarios"`
	Stats        SimulationStats `json:"stats"`
	ExpectedLoss float64         `json:"expectedLoss"`
}
