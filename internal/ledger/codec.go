package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// document is the persisted form of a State. Enum keys and values use the
// canonical codes; amounts are decimal strings.
type document struct {
	Version               int                        `json:"version"`
	TotalBalance          decimal.Decimal            `json:"total_balance"`
	MonthlyBudget         decimal.Decimal            `json:"monthly_budget"`
	BudgetResetActive     bool                       `json:"budget_reset_active"`
	BudgetLeft            decimal.Decimal            `json:"budget_left"`
	LastResetAt           *time.Time                 `json:"last_reset_at,omitempty"`
	CategoryExpenseTotals map[string]decimal.Decimal `json:"category_expense_totals"`
	CategoryBudgets       map[string]decimal.Decimal `json:"category_budgets"`
	Transactions          []transactionDoc           `json:"transactions"`
}

type transactionDoc struct {
	ID            string          `json:"id"`
	Title         string          `json:"title,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          string          `json:"kind"`
	Category      string          `json:"category"`
	Timestamp     time.Time       `json:"timestamp"`
	PaymentMethod string          `json:"payment_method"`
}

// DecodeWarning describes a value the decoder replaced or dropped.
type DecodeWarning struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Used  string `json:"used"`
}

func (w DecodeWarning) String() string {
	if w.Used == "" {
		return fmt.Sprintf("%s: dropped %q", w.Field, w.Value)
	}
	return fmt.Sprintf("%s: %q replaced with %q", w.Field, w.Value, w.Used)
}

// EncodeState serializes s into the versioned document form.
func EncodeState(s State) ([]byte, error) {
	doc := document{
		Version:               EncodingVersion,
		TotalBalance:          s.TotalBalance,
		MonthlyBudget:         s.MonthlyBudget,
		BudgetResetActive:     s.BudgetResetActive,
		BudgetLeft:            s.BudgetLeft,
		LastResetAt:           s.LastResetAt,
		CategoryExpenseTotals: make(map[string]decimal.Decimal, len(s.CategoryExpenseTotals)),
		CategoryBudgets:       make(map[string]decimal.Decimal, len(s.CategoryBudgets)),
		Transactions:          make([]transactionDoc, 0, len(s.Transactions)),
	}
	for k, v := range s.CategoryExpenseTotals {
		doc.CategoryExpenseTotals[string(k)] = v
	}
	for k, v := range s.CategoryBudgets {
		doc.CategoryBudgets[string(k)] = v
	}
	for _, t := range s.Transactions {
		doc.Transactions = append(doc.Transactions, transactionDoc{
			ID:            t.ID,
			Title:         t.Title,
			Amount:        t.Amount,
			Kind:          string(t.Kind),
			Category:      string(t.Category),
			Timestamp:     t.Timestamp,
			PaymentMethod: string(t.PaymentMethod),
		})
	}
	return json.Marshal(doc)
}

// DecodeState parses a document produced by EncodeState. Unknown enum values
// never fail the decode: they fall back to the documented defaults and are
// reported as warnings.
func DecodeState(data []byte) (State, []DecodeWarning, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return State{}, nil, fmt.Errorf("decode ledger document: %w", err)
	}
	if doc.Version > EncodingVersion {
		return State{}, nil, fmt.Errorf("decode ledger document: unsupported version %d", doc.Version)
	}

	var warnings []DecodeWarning
	s := State{
		TotalBalance:          doc.TotalBalance,
		MonthlyBudget:         doc.MonthlyBudget,
		BudgetResetActive:     doc.BudgetResetActive,
		BudgetLeft:            doc.BudgetLeft,
		LastResetAt:           doc.LastResetAt,
		CategoryExpenseTotals: zeroCategoryTotals(),
		CategoryBudgets:       make(map[BudgetCategory]Money, len(BudgetCategories)),
		Transactions:          make([]Transaction, 0, len(doc.Transactions)),
	}

	for k, v := range doc.CategoryExpenseTotals {
		c, ok := CategoryOrDefault(k)
		if !ok {
			warnings = append(warnings, DecodeWarning{Field: "category_expense_totals", Value: k, Used: string(c)})
		}
		s.CategoryExpenseTotals[c] = s.CategoryExpenseTotals[c].Add(v)
	}

	for _, bc := range BudgetCategories {
		s.CategoryBudgets[bc] = DefaultCategoryBudgets[bc]
	}
	for k, v := range doc.CategoryBudgets {
		bc, err := ParseBudgetCategory(k)
		if err != nil {
			warnings = append(warnings, DecodeWarning{Field: "category_budgets", Value: k})
			continue
		}
		s.CategoryBudgets[bc] = v
	}

	for _, td := range doc.Transactions {
		t := Transaction{
			ID:        td.ID,
			Title:     td.Title,
			Amount:    td.Amount,
			Timestamp: td.Timestamp,
		}
		var ok bool
		if t.Kind, ok = KindOrDefault(td.Kind); !ok {
			warnings = append(warnings, DecodeWarning{Field: "transactions.kind", Value: td.Kind, Used: string(t.Kind)})
		}
		if t.Category, ok = CategoryOrDefault(td.Category); !ok {
			warnings = append(warnings, DecodeWarning{Field: "transactions.category", Value: td.Category, Used: string(t.Category)})
		}
		if t.PaymentMethod, ok = PaymentMethodOrDefault(td.PaymentMethod); !ok {
			warnings = append(warnings, DecodeWarning{Field: "transactions.payment_method", Value: td.PaymentMethod, Used: string(t.PaymentMethod)})
		}
		s.Transactions = append(s.Transactions, t)
	}

	return s, warnings, nil
}
