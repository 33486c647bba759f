// internal/models/finance.go
package models

import "time"

type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type Investment struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	CurrentValue float64 `json:"currentValue"`
	Profit       float64 `json:"profit"`
}

type Budget struct {
	Category    string  `json:"category"`
	Limit       float64 `json:"limit"`
	Spent       float64 `json:"spent"`
	Remaining   float64 `json:"remaining"`
	PercentUsed int     `json:"percentUsed"`
}

// FinancialContext is a live snapshot of a user's finances. Error is set when
// any part of it could not be retrieved.
type FinancialContext struct {
	TotalIncomeAllTime   float64            `json:"totalIncomeAllTime"`
	TotalExpenseAllTime  float64            `json:"totalExpenseAllTime"`
	TotalBalance         float64            `json:"totalBalance"`
	TotalSavings         float64            `json:"totalSavings"`
	TotalLoans           float64            `json:"totalLoans"`
	MonthIncome          float64            `json:"monthIncome"`
	MonthExpense         float64            `json:"monthExpense"`
	IncomeByCategory     map[string]float64 `json:"incomeByCategory,omitempty"`
	ExpenseByCategory    map[string]float64 `json:"expenseByCategory,omitempty"`
	Investments          []Investment       `json:"investments,omitempty"`
	TotalInvestmentValue float64            `json:"totalInvestmentValue"`
	ActiveBudgets        []Budget           `json:"activeBudgets,omitempty"`
	Period               Period             `json:"period"`
	LastUpdated          time.Time          `json:"lastUpdated"`
	DataSource           string             `json:"dataSource"`
	Error                string             `json:"error,omitempty"`
}

// Degraded reports an error without a usable balance to ground on.
func (f *FinancialContext) Degraded() bool {
	return f == nil || (f.Error != "" && f.TotalBalance == 0)
}
