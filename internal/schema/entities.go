package schema

import (
	"fmt"
	"math"

	"refiwizard/internal/logger"
)

// num declares a numeric field with the default null-compares-as-zero policy.
func num(name string) Field {
	return Field{Name: name, Kind: KindNumeric, NullsCompareAsZero: true}
}

func str(name string) Field {
	return Field{Name: name, Kind: KindString}
}

// CompanyDetails holds descriptive company data for a project.
var CompanyDetails = New("company_details", "company-details", []Field{
	str("company_name"),
	str("industry"),
	str("fiscal_year_end"),
	str("reporting_currency"),
	str("region"),
	str("country"),
	num("employee_count"),
	num("founded"),
	str("company_website"),
	str("business_case"),
	str("notes"),
	num("projection_start_month"),
	num("projection_start_year"),
	num("projections_year"),
})

// ProfitLoss holds the annual P&L statement entered per project. Missing
// derived lines (gross profit down to net income) are computed from the
// entered figures before change detection.
var ProfitLoss = func() *Schema {
	s := New("profit_loss_data", "profit-loss", []Field{
		num("revenue"),
		num("cogs"),
		num("gross_profit"),
		num("operating_expenses"),
		num("ebitda"),
		num("depreciation"),
		num("amortization"),
		num("ebit"),
		num("interest_expense"),
		num("ebt"),
		num("tax_rates"),
		num("taxes"),
		num("net_income"),
	})
	s.Derive = deriveProfitLoss
	return s
}()

func deriveProfitLoss(candidate map[string]interface{}) map[string]interface{} {
	at := func(name string) float64 {
		n, ok := numericValue(candidate[name])
		if !ok {
			return 0
		}
		return n
	}

	grossProfit := at("revenue") - at("cogs")
	ebitda := grossProfit - at("operating_expenses")
	ebit := ebitda - at("depreciation") - at("amortization")
	ebt := ebit - at("interest_expense")
	taxes := ebt * (at("tax_rates") / 100)
	netIncome := ebt - taxes

	derived := map[string]interface{}{
		"gross_profit": grossProfit,
		"ebitda":       ebitda,
		"ebit":         ebit,
		"ebt":          ebt,
		"taxes":        taxes,
		"net_income":   netIncome,
	}

	out := make(map[string]interface{}, len(candidate)+len(derived))
	for k, v := range candidate {
		out[k] = v
	}
	for k, v := range derived {
		if _, supplied := candidate[k]; !supplied {
			out[k] = v
		}
	}
	return out
}

// BalanceSheet holds the entered balance sheet positions.
var BalanceSheet = New("balance_sheet_data", "balance-sheet", []Field{
	num("cash"),
	num("accounts_receivable"),
	num("inventory"),
	num("prepaid_expenses"),
	num("other_current_assets"),
	num("total_current_assets"),
	num("ppe"),
	num("intangible_assets"),
	num("goodwill"),
	num("other_assets"),
	num("total_assets"),
	num("accounts_payable"),
	num("accrued_expenses"),
	num("short_term_debt"),
	num("other_current_liabilities"),
	num("total_current_liabilities"),
	num("long_term_debt"),
	num("other_liabilities"),
	num("total_liabilities"),
	num("common_stock"),
	num("retained_earnings"),
	num("other_equity"),
	num("total_equity"),
	num("total_liabilities_equity"),
	num("capital_expenditure_additions"),
	num("asset_depreciated_over_years"),
})

// DebtStructure holds the financing terms for the senior secured and
// short term tranches.
var DebtStructure = New("debt_structure_data", "debt-structure", []Field{
	num("total_debt"),
	num("interest_rate"),
	str("maturity_date"),
	str("payment_frequency"),
	str("senior_secured_loan_type"),
	num("additional_loan_senior_secured"),
	num("bank_base_rate_senior_secured"),
	num("liquidity_premiums_senior_secured"),
	num("credit_risk_premiums_senior_secured"),
	num("maturity_y_senior_secured"),
	num("amortization_y_senior_secured"),
	str("short_term_loan_type"),
	num("additional_loan_short_term"),
	num("bank_base_rate_short_term"),
	num("liquidity_premiums_short_term"),
	num("credit_risk_premiums_short_term"),
	num("maturity_y_short_term"),
	num("amortization_y_short_term"),
})

// GrowthAssumptions holds twelve projection years of growth rates for
// revenue, cost, operating cost and capex.
var GrowthAssumptions = New("growth_assumptions_data", "growth-assumptions", growthAssumptionFields())

func growthAssumptionFields() []Field {
	prefixes := []string{"gr_revenue", "gr_cost", "gr_cost_oper", "gr_capex"}
	fields := make([]Field, 0, len(prefixes)*12)
	for _, prefix := range prefixes {
		for year := 1; year <= 12; year++ {
			fields = append(fields, num(fmt.Sprintf("%s_%d", prefix, year)))
		}
	}
	return fields
}

// WorkingCapital holds the working capital cycle assumptions.
var WorkingCapital = New("working_capital_data", "working-capital", []Field{
	num("days_receivables"),
	num("days_inventory"),
	num("days_payables"),
	num("cash_cycle"),
	num("account_receivable_percent"),
	num("inventory_percent"),
	num("other_current_assets_percent"),
	num("accounts_payable_percent"),
})

var seasonalityMonths = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Seasonality holds the monthly revenue distribution. When all twelve
// months are supplied their total should be close to 100%.
var Seasonality = func() *Schema {
	fields := make([]Field, 0, 14)
	for _, month := range seasonalityMonths {
		fields = append(fields, num(month))
	}
	fields = append(fields, num("seasonal_working_capital"), str("seasonality_pattern"))

	s := New("seasonality_data", "seasonality", fields)
	s.Derive = checkSeasonalityTotal
	return s
}()

func checkSeasonalityTotal(candidate map[string]interface{}) map[string]interface{} {
	total := 0.0
	supplied := 0
	for _, month := range seasonalityMonths {
		if n, ok := numericValue(candidate[month]); ok {
			total += n
			supplied++
		}
	}
	if supplied == len(seasonalityMonths) && math.Abs(total-100) > 1 {
		logger.Get().Warnf("seasonality percentages sum to %.2f%%, expected close to 100%%", total)
	}
	return candidate
}

// CashFlow holds the entered cash flow statement.
var CashFlow = New("cash_flow_data", "cash-flow", []Field{
	num("net_income"),
	num("depreciation"),
	num("amortization"),
	num("changes_in_working_capital"),
	num("operating_cash_flow"),
	num("capex"),
	num("acquisitions"),
	num("investing_cash_flow"),
	num("debt_issuance"),
	num("debt_repayment"),
	num("dividends"),
	num("financing_cash_flow"),
	num("net_cash_flow"),
	num("capital_expenditures"),
	num("free_cash_flow"),
	num("debt_service"),
})

// All lists every registered entity schema in the order resources are
// mounted on the router.
var All = []*Schema{
	CompanyDetails,
	ProfitLoss,
	BalanceSheet,
	DebtStructure,
	GrowthAssumptions,
	WorkingCapital,
	Seasonality,
	CashFlow,
}

// Lookup returns the schema registered for the given entity type.
func Lookup(entityType string) (*Schema, bool) {
	for _, s := range All {
		if s.EntityType == entityType {
			return s, true
		}
	}
	return nil, false
}
