// Package finance aggregates a user's budgeting records into the snapshot used
// to ground chatbot answers.
package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"vanlang-chatbot/internal/models"
)

const (
	DataSourceDatabase = "database"
	DataSourceFallback = "error-fallback"

	// ErrorMessage is stored on the snapshot whenever a query failed.
	ErrorMessage = "Không thể lấy dữ liệu tài chính"

	defaultCategory = "Other"
)

var ErrFinancialDataFailed = errors.New("FINANCIAL_DATA_UNAVAILABLE")

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Provider returns a user's financial snapshot. Query failures are reported on
// the snapshot itself; the error return is reserved for cancellation of ctx.
type Provider interface {
	GetUserFinancialData(ctx context.Context, userID string) (*models.FinancialContext, error)
	Health(ctx context.Context) models.ServiceHealth
}

const (
	queryIncomes     = `SELECT amount, COALESCE(category, ''), date FROM incomes WHERE user_id = $1`
	queryExpenses    = `SELECT amount, COALESCE(category, ''), date FROM expenses WHERE user_id = $1`
	queryInvestments = `SELECT COALESCE(name, ''), COALESCE(type, ''), amount, COALESCE(current_value, amount) FROM investments WHERE user_id = $1`
	queryBudgets     = `SELECT category, amount FROM budgets WHERE user_id = $1`
	queryLoans       = `SELECT amount, COALESCE(interest_rate, 0), COALESCE(term, 1) FROM loans WHERE user_id = $1`
)

type transaction struct {
	amount   float64
	category string
	date     time.Time
}

type loan struct {
	amount   float64
	rate     float64
	termMths int
}

type budgetRow struct {
	category string
	limit    float64
}

type records struct {
	incomes     []transaction
	expenses    []transaction
	investments []models.Investment
	budgets     []budgetRow
	loans       []loan
}

type PostgresProvider struct {
	config *Config
	db     *sql.DB
	logger Logger
	now    func() time.Time
}

func NewPostgresProvider(config *Config, db *sql.DB, log Logger) *PostgresProvider {
	return &PostgresProvider{
		config: config.withDefaults(),
		db:     db,
		logger: log.With(map[string]interface{}{
			"component": "finance",
		}),
		now: time.Now,
	}
}

// GetUserFinancialData runs the five record queries concurrently and folds
// them into a snapshot. Whatever could be read is kept when some queries fail.
func (p *PostgresProvider) GetUserFinancialData(ctx context.Context, userID string) (*models.FinancialContext, error) {
	queryCtx, cancel := context.WithTimeout(ctx, p.config.QueryTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		recs records
	)
	errChan := make(chan error, 5)

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(queryCtx); err != nil {
				errChan <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	run("incomes", func(ctx context.Context) error {
		rows, err := p.queryTransactions(ctx, queryIncomes, userID)
		if err != nil {
			return err
		}
		mu.Lock()
		recs.incomes = rows
		mu.Unlock()
		return nil
	})
	run("expenses", func(ctx context.Context) error {
		rows, err := p.queryTransactions(ctx, queryExpenses, userID)
		if err != nil {
			return err
		}
		mu.Lock()
		recs.expenses = rows
		mu.Unlock()
		return nil
	})
	run("investments", func(ctx context.Context) error {
		rows, err := p.queryInvestments(ctx, userID)
		if err != nil {
			return err
		}
		mu.Lock()
		recs.investments = rows
		mu.Unlock()
		return nil
	})
	run("budgets", func(ctx context.Context) error {
		rows, err := p.queryBudgets(ctx, userID)
		if err != nil {
			return err
		}
		mu.Lock()
		recs.budgets = rows
		mu.Unlock()
		return nil
	})
	run("loans", func(ctx context.Context) error {
		rows, err := p.queryLoans(ctx, userID)
		if err != nil {
			return err
		}
		mu.Lock()
		recs.loans = rows
		mu.Unlock()
		return nil
	})

	go func() {
		wg.Wait()
		close(errChan)
	}()

	var failures []error
	for err := range errChan {
		failures = append(failures, err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	snapshot := aggregate(recs, p.now())
	if len(failures) > 0 {
		err := fmt.Errorf("%w: %v", ErrFinancialDataFailed, errors.Join(failures...))
		p.logger.Error("financial data query failed", map[string]interface{}{
			"userId":  userID,
			"failed":  len(failures),
			"error":   err.Error(),
			"partial": len(failures) < 5,
		})
		snapshot.Error = ErrorMessage
		if len(failures) == 5 {
			snapshot.DataSource = DataSourceFallback
		}
		return snapshot, nil
	}

	p.logger.Info("financial data calculated", map[string]interface{}{
		"userId":       userID,
		"totalBalance": snapshot.TotalBalance,
		"monthIncome":  snapshot.MonthIncome,
		"monthExpense": snapshot.MonthExpense,
	})
	return snapshot, nil
}

func (p *PostgresProvider) Health(ctx context.Context) models.ServiceHealth {
	if p.db == nil {
		return models.ServiceHealth{Status: models.StatusUnhealthy, Details: map[string]interface{}{"error": "database not configured"}}
	}
	if err := p.db.PingContext(ctx); err != nil {
		return models.ServiceHealth{Status: models.StatusUnhealthy, Details: map[string]interface{}{"error": err.Error()}}
	}
	stats := p.db.Stats()
	return models.ServiceHealth{
		Status: models.StatusHealthy,
		Details: map[string]interface{}{
			"openConnections": stats.OpenConnections,
			"inUse":           stats.InUse,
		},
	}
}

// ==========================
// Queries
// ==========================

func (p *PostgresProvider) queryTransactions(ctx context.Context, query, userID string) ([]transaction, error) {
	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transaction
	for rows.Next() {
		var t transaction
		if err := rows.Scan(&t.amount, &t.category, &t.date); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *PostgresProvider) queryInvestments(ctx context.Context, userID string) ([]models.Investment, error) {
	rows, err := p.db.QueryContext(ctx, queryInvestments, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Investment
	for rows.Next() {
		var inv models.Investment
		if err := rows.Scan(&inv.Name, &inv.Type, &inv.Amount, &inv.CurrentValue); err != nil {
			return nil, err
		}
		if inv.Name == "" {
			inv.Name = "Unnamed"
		}
		if inv.Type == "" {
			inv.Type = "Unknown"
		}
		inv.Profit = inv.CurrentValue - inv.Amount
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (p *PostgresProvider) queryBudgets(ctx context.Context, userID string) ([]budgetRow, error) {
	rows, err := p.db.QueryContext(ctx, queryBudgets, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []budgetRow
	for rows.Next() {
		var b budgetRow
		if err := rows.Scan(&b.category, &b.limit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *PostgresProvider) queryLoans(ctx context.Context, userID string) ([]loan, error) {
	rows, err := p.db.QueryContext(ctx, queryLoans, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loan
	for rows.Next() {
		var l loan
		if err := rows.Scan(&l.amount, &l.rate, &l.termMths); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ==========================
// Aggregation
// ==========================

func aggregate(recs records, now time.Time) *models.FinancialContext {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	inMonth := func(t time.Time) bool {
		return !t.Before(monthStart) && t.Before(monthEnd)
	}

	fc := &models.FinancialContext{
		IncomeByCategory:  make(map[string]float64),
		ExpenseByCategory: make(map[string]float64),
		Investments:       recs.investments,
		Period:            models.Period{Month: int(now.Month()), Year: now.Year()},
		LastUpdated:       now.UTC(),
		DataSource:        DataSourceDatabase,
	}

	for _, in := range recs.incomes {
		fc.TotalIncomeAllTime += in.amount
		if inMonth(in.date) {
			fc.MonthIncome += in.amount
			fc.IncomeByCategory[categoryOf(in.category)] += in.amount
		}
	}

	for _, ex := range recs.expenses {
		fc.TotalExpenseAllTime += ex.amount
		if inMonth(ex.date) {
			fc.MonthExpense += ex.amount
			fc.ExpenseByCategory[categoryOf(ex.category)] += ex.amount
		}
	}

	fc.TotalSavings = math.Max(0, fc.TotalIncomeAllTime-fc.TotalExpenseAllTime)
	fc.TotalBalance = fc.TotalSavings

	for _, l := range recs.loans {
		fc.TotalLoans += l.amount + CalculateLoanInterest(l.amount, l.rate, l.termMths)
	}

	for _, inv := range recs.investments {
		fc.TotalInvestmentValue += inv.CurrentValue
	}

	for _, b := range recs.budgets {
		spent := fc.ExpenseByCategory[categoryOf(b.category)]
		budget := models.Budget{
			Category:  b.category,
			Limit:     b.limit,
			Spent:     spent,
			Remaining: math.Max(0, b.limit-spent),
		}
		if b.limit > 0 {
			budget.PercentUsed = int(math.Round(spent / b.limit * 100))
		}
		fc.ActiveBudgets = append(fc.ActiveBudgets, budget)
	}

	return fc
}

func categoryOf(c string) string {
	if c == "" {
		return defaultCategory
	}
	return c
}
