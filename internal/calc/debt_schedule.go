// Package calc implements the thin amortization calculators. They are pure
// functions producing schedule blobs; persistence and input sourcing live in
// the calculation service.
package calc

import "fmt"

// DebtTranche describes one loan tranche to amortize.
type DebtTranche struct {
	Name string `json:"name"`
	// Principal in reporting currency.
	Principal float64 `json:"principal"`
	// AnnualRatePercent is the composed rate: bank base rate plus liquidity
	// and credit risk premiums.
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	MaturityYears     float64 `json:"maturity_years"`
}

// DebtScheduleRow is one month of the amortization schedule for a tranche.
type DebtScheduleRow struct {
	Tranche        string  `json:"tranche"`
	Month          int     `json:"month"`
	Payment        float64 `json:"payment"`
	Interest       float64 `json:"interest"`
	Principal      float64 `json:"principal"`
	ClosingBalance float64 `json:"closing_balance"`
}

// DebtSchedule produces a monthly annuity amortization schedule per tranche.
// Tranches with zero principal are skipped; a tranche with principal but no
// maturity is an input error.
func DebtSchedule(tranches []DebtTranche) ([]DebtScheduleRow, error) {
	var rows []DebtScheduleRow

	for _, t := range tranches {
		if t.Principal == 0 {
			continue
		}
		if t.Principal < 0 {
			return nil, fmt.Errorf("tranche %s: negative principal %.2f", t.Name, t.Principal)
		}
		months := int(t.MaturityYears * 12)
		if months <= 0 {
			return nil, fmt.Errorf("tranche %s: maturity must be positive, got %.2f years", t.Name, t.MaturityYears)
		}

		monthlyRate := t.AnnualRatePercent / 100 / 12
		payment := annuityPayment(t.Principal, monthlyRate, months)

		balance := t.Principal
		for month := 1; month <= months; month++ {
			interest := balance * monthlyRate
			principal := payment - interest
			if month == months || principal > balance {
				// Final installment clears rounding drift.
				principal = balance
				payment = principal + interest
			}
			balance -= principal

			rows = append(rows, DebtScheduleRow{
				Tranche:        t.Name,
				Month:          month,
				Payment:        payment,
				Interest:       interest,
				Principal:      principal,
				ClosingBalance: balance,
			})
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no tranches with outstanding principal")
	}
	return rows, nil
}

// annuityPayment returns the fixed monthly payment for a loan of principal p
// at monthly rate r over n months.
func annuityPayment(p, r float64, n int) float64 {
	if r == 0 {
		return p / float64(n)
	}
	factor := 1.0
	for i := 0; i < n; i++ {
		factor *= 1 + r
	}
	return p * r * factor / (factor - 1)
}
