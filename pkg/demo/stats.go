package demo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize computes the spread shown on the risk simulation screen.
// Fewer than two losses have no standard deviation and report zero.
func Summarize(losses []float64) SimulationStats {
	if len(losses) == 0 {
		return SimulationStats{}
	}
	sorted := append([]float64(nil), losses...)
	sort.Float64s(sorted)

	s := SimulationStats{
		N:     len(sorted),
		Mean:  stat.Mean(sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Worst: floats.Max(sorted),
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

// LVR is the loan-to-value ratio.
func LVR(loan, value float64) float64 {
	if value <= 0 {
		return 0
	}
	return loan / value
}

// DTI is total debt over gross annual income.
func DTI(loan, existingDebt, income float64) float64 {
	if income <= 0 {
		return 0
	}
	return (loan + existingDebt) / income
}

// MonthlyRepayment is the principal-and-interest repayment at annualRate
// over years.
func MonthlyRepayment(principal, annualRate float64, years int) float64 {
	n := float64(years * 12)
	if n <= 0 {
		return 0
	}
	if annualRate <= 0 {
		return principal / n
	}
	r := annualRate / 12
	return principal * r / (1 - math.Pow(1+r, -n))
}

// Classify maps a score onto a light.
func (t Thresholds) Classify(score float64) Light {
	switch {
	case score >= t.Green:
		return LightGreen
	case score >= t.Amber:
		return LightAmber
	}
	return LightRed
}
