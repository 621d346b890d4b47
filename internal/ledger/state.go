// Package ledger implements the budget accounting engine.
//
// Every operation takes a State value and returns a new one; nothing in this
// package reads the clock, touches storage or looks up a current user.
// Callers serialize mutations per user and persist the returned State.
package ledger

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in the user's display currency.
type Money = decimal.Decimal

// Defaults for a freshly created ledger.
var (
	DefaultMonthlyBudget = decimal.NewFromInt(21000)

	DefaultCategoryBudgets = map[BudgetCategory]Money{
		BudgetEntertainment: decimal.NewFromInt(10000),
		BudgetFood:          decimal.NewFromInt(5000),
		BudgetTransport:     decimal.NewFromInt(1000),
		BudgetLifestyle:     decimal.NewFromInt(5000),
	}
)

// Engine errors. They never leave a state partially mutated.
var (
	ErrInvalidAmount        = errors.New("ledger: amount must be greater than zero")
	ErrInvalidTransaction   = errors.New("ledger: invalid transaction")
	ErrDuplicateTransaction = errors.New("ledger: duplicate transaction id")
)

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID            string
	Title         string
	Amount        Money
	Kind          Kind
	Category      Category
	Timestamp     time.Time
	PaymentMethod PaymentMethod
}

// Signed returns the amount as it affects the balance.
func (t Transaction) Signed() Money {
	if t.Kind == KindIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// State is the complete accounting state of one user.
type State struct {
	TotalBalance          Money
	MonthlyBudget         Money
	BudgetResetActive     bool
	BudgetLeft            Money
	LastResetAt           *time.Time
	CategoryExpenseTotals map[Category]Money
	CategoryBudgets       map[BudgetCategory]Money
	Transactions          []Transaction
}

// NewState returns the state of a user who has never recorded anything.
func NewState() State {
	return NewStateWithBudget(DefaultMonthlyBudget)
}

// NewStateWithBudget is NewState with a custom starting monthly budget.
func NewStateWithBudget(budget Money) State {
	s := State{
		TotalBalance:          decimal.Zero,
		MonthlyBudget:         budget,
		BudgetLeft:            budget,
		CategoryExpenseTotals: zeroCategoryTotals(),
		CategoryBudgets:       make(map[BudgetCategory]Money, len(DefaultCategoryBudgets)),
	}
	for k, v := range DefaultCategoryBudgets {
		s.CategoryBudgets[k] = v
	}
	return s
}

func zeroCategoryTotals() map[Category]Money {
	m := make(map[Category]Money, len(Categories))
	for _, c := range Categories {
		m[c] = decimal.Zero
	}
	return m
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	if s.LastResetAt != nil {
		t := *s.LastResetAt
		out.LastResetAt = &t
	}
	out.CategoryExpenseTotals = make(map[Category]Money, len(s.CategoryExpenseTotals))
	for k, v := range s.CategoryExpenseTotals {
		out.CategoryExpenseTotals[k] = v
	}
	out.CategoryBudgets = make(map[BudgetCategory]Money, len(s.CategoryBudgets))
	for k, v := range s.CategoryBudgets {
		out.CategoryBudgets[k] = v
	}
	out.Transactions = slices.Clone(s.Transactions)
	return out
}

// Equal compares two states by value. Decimal amounts are compared
// numerically and a missing map entry equals zero.
func (s State) Equal(o State) bool {
	if !s.TotalBalance.Equal(o.TotalBalance) ||
		!s.MonthlyBudget.Equal(o.MonthlyBudget) ||
		!s.BudgetLeft.Equal(o.BudgetLeft) ||
		s.BudgetResetActive != o.BudgetResetActive {
		return false
	}
	if (s.LastResetAt == nil) != (o.LastResetAt == nil) {
		return false
	}
	if s.LastResetAt != nil && !s.LastResetAt.Equal(*o.LastResetAt) {
		return false
	}
	if !moneyMapsEqual(s.CategoryExpenseTotals, o.CategoryExpenseTotals) ||
		!moneyMapsEqual(s.CategoryBudgets, o.CategoryBudgets) {
		return false
	}
	if len(s.Transactions) != len(o.Transactions) {
		return false
	}
	for i := range s.Transactions {
		if !s.Transactions[i].Equal(o.Transactions[i]) {
			return false
		}
	}
	return true
}

// Equal compares two transactions by value.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Title == o.Title &&
		t.Amount.Equal(o.Amount) &&
		t.Kind == o.Kind &&
		t.Category == o.Category &&
		t.Timestamp.Equal(o.Timestamp) &&
		t.PaymentMethod == o.PaymentMethod
}

func moneyMapsEqual[K comparable](a, b map[K]Money) bool {
	for k, v := range a {
		if !v.Equal(b[k]) {
			return false
		}
	}
	for k, v := range b {
		if _, ok := a[k]; !ok && !v.IsZero() {
			return false
		}
	}
	return true
}

// FindTransaction returns the transaction with the given id.
func (s State) FindTransaction(id string) (Transaction, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Transaction{}, false
	}
	return s.Transactions[i], true
}

func (s State) indexOf(id string) int {
	return slices.IndexFunc(s.Transactions, func(t Transaction) bool { return t.ID == id })
}
