package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func sameMonth(t, now time.Time) bool {
	t = t.In(now.Location())
	return t.Year() == now.Year() && t.Month() == now.Month()
}

func sumMonthly(s State, now time.Time, kind Kind) Money {
	total := decimal.Zero
	for _, t := range s.Transactions {
		if t.Kind == kind && sameMonth(t.Timestamp, now) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// MonthlyIncome sums income recorded in the calendar month of now.
func MonthlyIncome(s State, now time.Time) Money {
	return sumMonthly(s, now, KindIncome)
}

// MonthlyExpenses sums expenses recorded in the calendar month of now.
func MonthlyExpenses(s State, now time.Time) Money {
	return sumMonthly(s, now, KindExpense)
}

// MonthlyCategoryExpenses groups the calendar month's expenses by category.
// Categories without spend are absent.
func MonthlyCategoryExpenses(s State, now time.Time) map[Category]Money {
	out := make(map[Category]Money)
	for _, t := range s.Transactions {
		if t.Kind == KindExpense && sameMonth(t.Timestamp, now) {
			out[t.Category] = out[t.Category].Add(t.Amount)
		}
	}
	return out
}

// HasTransactionsThisPeriod reports whether any income or expense was
// recorded in the calendar month of now.
func HasTransactionsThisPeriod(s State, now time.Time) bool {
	return MonthlyIncome(s, now).IsPositive() || MonthlyExpenses(s, now).IsPositive()
}

// ExpensesSinceReset groups expenses recorded strictly after the last reset.
// Before the first reset it returns a copy of the running category totals.
func ExpensesSinceReset(s State) map[Category]Money {
	out := make(map[Category]Money)
	if s.LastResetAt == nil {
		for k, v := range s.CategoryExpenseTotals {
			out[k] = v
		}
		return out
	}
	for _, t := range s.Transactions {
		if t.Kind == KindExpense && t.Timestamp.After(*s.LastResetAt) {
			out[t.Category] = out[t.Category].Add(t.Amount)
		}
	}
	return out
}

func sumValues(m map[Category]Money) Money {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

func percentOf(part, base Money) int {
	if !base.IsPositive() {
		return 0
	}
	return int(part.Div(base).Mul(hundred).Round(0).IntPart())
}

// ProgressPercent is the share of the budget already spent, rounded half
// away from zero. It is not clamped and may exceed 100.
func ProgressPercent(s State, now time.Time) int {
	if s.BudgetResetActive {
		return percentOf(sumValues(ExpensesSinceReset(s)), s.MonthlyBudget)
	}
	base := MonthlyIncome(s, now)
	if !base.IsPositive() {
		base = s.MonthlyBudget
	}
	return percentOf(MonthlyExpenses(s, now), base)
}

// EffectiveBudgetRemaining is the single remaining figure shown to the user.
func EffectiveBudgetRemaining(s State, now time.Time) Money {
	if s.BudgetResetActive {
		return s.BudgetLeft
	}
	return s.MonthlyBudget.Sub(MonthlyExpenses(s, now))
}

// CategoryAmount is one slice of the spending breakdown.
type CategoryAmount struct {
	Category    Category `json:"category"`
	DisplayName string   `json:"display_name"`
	Amount      Money    `json:"amount"`
}

// CategoryBreakdown returns the spend per category for the current period,
// largest first. Income source categories are left out.
func CategoryBreakdown(s State, now time.Time) []CategoryAmount {
	var spend map[Category]Money
	if s.BudgetResetActive {
		spend = ExpensesSinceReset(s)
	} else {
		spend = MonthlyCategoryExpenses(s, now)
	}

	out := make([]CategoryAmount, 0, len(spend))
	for c, amount := range spend {
		if c.IsIncomeSource() || !amount.IsPositive() {
			continue
		}
		out = append(out, CategoryAmount{Category: c, DisplayName: c.DisplayName(), Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// EnvelopeProgress reports spend against one budget envelope.
type EnvelopeProgress struct {
	Category  BudgetCategory `json:"category"`
	Budget    Money          `json:"budget"`
	Spent     Money          `json:"spent"`
	Remaining Money          `json:"remaining"`
	Percent   int            `json:"percent"`
	Overspent bool           `json:"overspent"`
}

// BudgetCategoryProgress reports every envelope in display order.
func BudgetCategoryProgress(s State) []EnvelopeProgress {
	out := make([]EnvelopeProgress, 0, len(BudgetCategories))
	for _, bc := range BudgetCategories {
		budget := s.CategoryBudgets[bc]
		spent := s.CategoryExpenseTotals[bc.SpendCategory()]
		remaining := budget.Sub(spent)
		out = append(out, EnvelopeProgress{
			Category:  bc,
			Budget:    budget,
			Spent:     spent,
			Remaining: remaining,
			Percent:   percentOf(spent, budget),
			Overspent: remaining.IsNegative(),
		})
	}
	return out
}

// Summary carries every figure the dashboard renders.
type Summary struct {
	TotalBalance       Money            `json:"total_balance"`
	MonthlyBudget      Money            `json:"monthly_budget"`
	BudgetLeft         Money            `json:"budget_left"`
	EffectiveRemaining Money            `json:"effective_remaining"`
	MonthlyIncome      Money            `json:"monthly_income"`
	MonthlyExpenses    Money            `json:"monthly_expenses"`
	ProgressPercent    int              `json:"progress_percent"`
	BudgetResetActive  bool             `json:"budget_reset_active"`
	LastResetAt        *time.Time       `json:"last_reset_at,omitempty"`
	HasTransactions    bool             `json:"has_transactions"`
	TransactionCount   int              `json:"transaction_count"`
	Breakdown          []CategoryAmount `json:"breakdown"`
}

// Summarize builds the dashboard read model for now.
func Summarize(s State, now time.Time) Summary {
	return Summary{
		TotalBalance:       s.TotalBalance,
		MonthlyBudget:      s.MonthlyBudget,
		BudgetLeft:         s.BudgetLeft,
		EffectiveRemaining: EffectiveBudgetRemaining(s, now),
		MonthlyIncome:      MonthlyIncome(s, now),
		MonthlyExpenses:    MonthlyExpenses(s, now),
		ProgressPercent:    ProgressPercent(s, now),
		BudgetResetActive:  s.BudgetResetActive,
		LastResetAt:        s.LastResetAt,
		HasTransactions:    HasTransactionsThisPeriod(s, now),
		TransactionCount:   len(s.Transactions),
		Breakdown:          CategoryBreakdown(s, now),
	}
}
