package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carnoises/ingresos-gastos-app/internal/core"
)

// Reports scan income and expense transactions inside a half-open UTC time
// range and aggregate with exact decimal arithmetic in Go, so the SQL stays
// identical across store dialects. Transfers never count towards income or
// expense totals.

// MonthlyReport sums income and expense for one calendar month. A month
// with no matching transactions yields zero totals.
func (s *Service) MonthlyReport(ctx context.Context, year, month int) (core.MonthlyReport, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	income, expense, err := s.sumByType(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return core.MonthlyReport{}, err
	}
	return core.MonthlyReport{
		Year:         year,
		Month:        month,
		TotalIncome:  income,
		TotalExpense: expense,
		NetBalance:   income.Sub(expense),
	}, nil
}

// DailyReport sums income and expense for one calendar day.
func (s *Service) DailyReport(ctx context.Context, year, month, day int) (core.DailyReport, error) {
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	income, expense, err := s.sumByType(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return core.DailyReport{}, err
	}
	return core.DailyReport{
		Year:         year,
		Month:        month,
		Day:          day,
		TotalIncome:  income,
		TotalExpense: expense,
		NetBalance:   income.Sub(expense),
	}, nil
}

// CategorizedExpenses groups one month's expenses by category name.
// Expenses without a category are left out of the grouping.
func (s *Service) CategorizedExpenses(ctx context.Context, year, month int) ([]core.CategoryExpense, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := s.store.DB().QueryContext(ctx, s.store.Rebind(`
		SELECT c.name, t.amount
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.type = ? AND t.date >= ? AND t.date < ?`),
		core.TypeExpense, start, end)
	if err != nil {
		return nil, fmt.Errorf("query categorized expenses: %w", err)
	}
	defer rows.Close()

	totals := map[string]decimal.Decimal{}
	for rows.Next() {
		var name string
		var amount decimal.Decimal
		if err := rows.Scan(&name, &amount); err != nil {
			return nil, fmt.Errorf("scan categorized expense: %w", err)
		}
		totals[name] = totals[name].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report := make([]core.CategoryExpense, 0, len(totals))
	for name, total := range totals {
		report = append(report, core.CategoryExpense{Category: name, TotalExpense: total})
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Category < report[j].Category })
	return report, nil
}

func (s *Service) sumByType(ctx context.Context, start, end time.Time) (income, expense decimal.Decimal, err error) {
	rows, err := s.store.DB().QueryContext(ctx, s.store.Rebind(`
		SELECT type, amount
		FROM transactions
		WHERE date >= ? AND date < ? AND type IN (?, ?)`),
		start, end, core.TypeIncome, core.TypeExpense)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("query period transactions: %w", err)
	}
	defer rows.Close()

	income, expense = decimal.Zero, decimal.Zero
	for rows.Next() {
		var txType core.TransactionType
		var amount decimal.Decimal
		if err := rows.Scan(&txType, &amount); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("scan period transaction: %w", err)
		}
		switch txType {
		case core.TypeIncome:
			income = income.Add(amount)
		case core.TypeExpense:
			expense = expense.Add(amount)
		}
	}
	return income, expense, rows.Err()
}
