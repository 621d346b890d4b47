package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Validate checks the preconditions RecordTransaction enforces.
func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: kind %q", ErrInvalidTransaction, t.Kind)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidTransaction, t.Category)
	}
	if !t.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment method %q", ErrInvalidTransaction, t.PaymentMethod)
	}
	return nil
}

// countsTowardBudgetLeft reports whether an income raises budgetLeft once a
// reset is active. Salary is excluded: it already raised the monthly budget.
func countsTowardBudgetLeft(t Transaction) bool {
	return t.Kind == KindIncome && t.Category != CategorySalary
}

// apply adds sign*t to every running aggregate. sign is +1 when recording
// and -1 when deleting, which keeps the two paths exact mirrors.
func apply(s *State, t Transaction, sign int64) {
	amount := t.Amount.Mul(decimal.NewFromInt(sign))

	switch t.Kind {
	case KindIncome:
		s.TotalBalance = s.TotalBalance.Add(amount)
		s.MonthlyBudget = s.MonthlyBudget.Add(amount)
		if s.BudgetResetActive && countsTowardBudgetLeft(t) {
			s.BudgetLeft = s.BudgetLeft.Add(amount)
		}
	case KindExpense:
		s.TotalBalance = s.TotalBalance.Sub(amount)
		s.CategoryExpenseTotals[t.Category] = s.CategoryExpenseTotals[t.Category].Add(amount)
		if s.BudgetResetActive {
			s.BudgetLeft = s.BudgetLeft.Sub(amount)
		}
	}
}

// RecordTransaction applies tx to s. On error s is returned unchanged.
func RecordTransaction(s State, tx Transaction) (State, error) {
	if err := tx.Validate(); err != nil {
		return s, err
	}
	if s.indexOf(tx.ID) >= 0 {
		return s, fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
	}

	out := s.Clone()
	apply(&out, tx, 1)
	out.Transactions = append(out.Transactions, tx)
	return out, nil
}

// DeleteTransaction removes the transaction with the given id and reverses
// its effects. A missing id is not an error: s is returned with false.
func DeleteTransaction(s State, id string) (State, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return s, false
	}

	out := s.Clone()
	tx := out.Transactions[i]
	apply(&out, tx, -1)
	out.Transactions = slices.Delete(out.Transactions, i, i+1)
	return out, true
}

// ResetBudgetPeriod starts a new budget period and deducts the current
// monthly budget from the total balance exactly once.
func ResetBudgetPeriod(s State, now time.Time) State {
	out := s.Clone()
	out.TotalBalance = out.TotalBalance.Sub(out.MonthlyBudget)
	return resetAccounting(out, now)
}

// ResetBudgetAccounting starts a new budget period without touching the
// balance. Use it only where the balance was already adjusted.
func ResetBudgetAccounting(s State, now time.Time) State {
	return resetAccounting(s.Clone(), now)
}

// resetAccounting mutates out, which must already be a private copy.
func resetAccounting(out State, now time.Time) State {
	out.CategoryExpenseTotals = zeroCategoryTotals()
	out.BudgetLeft = out.MonthlyBudget
	resetAt := now
	out.LastResetAt = &resetAt
	out.BudgetResetActive = true
	return out
}

// SetCategoryBudget sets one envelope and recomputes the monthly budget as
// the sum of all four envelopes.
func SetCategoryBudget(s State, bc BudgetCategory, amount Money) (State, error) {
	if !bc.Valid() {
		return s, fmt.Errorf("%w: budget category %q", ErrInvalidTransaction, bc)
	}
	if amount.IsNegative() {
		return s, ErrInvalidAmount
	}

	out := s.Clone()
	out.CategoryBudgets[bc] = amount
	total := decimal.Zero
	for _, c := range BudgetCategories {
		total = total.Add(out.CategoryBudgets[c])
	}
	out.MonthlyBudget = total
	return out, nil
}

// RecomputeCategoryTotals rebuilds CategoryExpenseTotals from the log: all
// expenses before the first reset, otherwise those after LastResetAt.
func RecomputeCategoryTotals(s State) State {
	out := s.Clone()
	out.CategoryExpenseTotals = zeroCategoryTotals()
	for _, t := range out.Transactions {
		if t.Kind != KindExpense {
			continue
		}
		if out.LastResetAt != nil && !t.Timestamp.After(*out.LastResetAt) {
			continue
		}
		out.CategoryExpenseTotals[t.Category] = out.CategoryExpenseTotals[t.Category].Add(t.Amount)
	}
	return out
}

// Replay records txs on top of base in order.
func Replay(base State, txs []Transaction) (State, error) {
	s := base
	for _, tx := range txs {
		var err error
		if s, err = RecordTransaction(s, tx); err != nil {
			return base, fmt.Errorf("replay %s: %w", tx.ID, err)
		}
	}
	return s, nil
}
