package calc

import "fmt"

// DepreciationInput holds the balance sheet figures the depreciation
// schedule is derived from.
type DepreciationInput struct {
	CapexAdditions float64 `json:"capex_additions"`
	AssetLifeYears int     `json:"asset_life_years"`
}

// DepreciationRow is one year of the straight-line depreciation schedule.
type DepreciationRow struct {
	Year           int     `json:"year"`
	OpeningBalance float64 `json:"opening_balance"`
	Depreciation   float64 `json:"depreciation"`
	ClosingBalance float64 `json:"closing_balance"`
}

// StraightLineDepreciation spreads the capex additions evenly over the
// asset life.
func StraightLineDepreciation(input DepreciationInput) ([]DepreciationRow, error) {
	if input.CapexAdditions <= 0 {
		return nil, fmt.Errorf("capex additions must be positive, got %.2f", input.CapexAdditions)
	}
	if input.AssetLifeYears <= 0 {
		return nil, fmt.Errorf("asset life must be positive, got %d years", input.AssetLifeYears)
	}

	annual := input.CapexAdditions / float64(input.AssetLifeYears)
	rows := make([]DepreciationRow, 0, input.AssetLifeYears)

	balance := input.CapexAdditions
	for year := 1; year <= input.AssetLifeYears; year++ {
		depreciation := annual
		if year == input.AssetLifeYears {
			depreciation = balance
		}
		rows = append(rows, DepreciationRow{
			Year:           year,
			OpeningBalance: balance,
			Depreciation:   depreciation,
			ClosingBalance: balance - depreciation,
		})
		balance -= depreciation
	}
	return rows, nil
}
