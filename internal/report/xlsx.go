// Package report renders the ledger as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"meloch/internal/ledger"
)

const (
	SummarySheet      = "Summary"
	TransactionsSheet = "Transactions"
	ContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileName is the attachment name for a report generated at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("meloch_%s.xlsx", now.Format("20060102"))
}

// WriteXLSX writes a two-sheet workbook: dashboard figures for now, then
// every transaction newest first.
func WriteXLSX(w io.Writer, s ledger.State, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummary(f, ledger.Summarize(s, now)); err != nil {
		return err
	}

	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeTransactions(f, s.Transactions); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// Amounts are written as float cells so spreadsheet formulas work on them.
func num(m ledger.Money) float64 {
	v, _ := m.Float64()
	return v
}

func writeSummary(f *excelize.File, sum ledger.Summary) error {
	lastReset := "never"
	if sum.LastResetAt != nil {
		lastReset = sum.LastResetAt.Format("2006-01-02 15:04")
	}

	rows := [][]any{
		{"Figure", "Value"},
		{"Total balance", num(sum.TotalBalance)},
		{"Monthly budget", num(sum.MonthlyBudget)},
		{"Budget left", num(sum.BudgetLeft)},
		{"Effective remaining", num(sum.EffectiveRemaining)},
		{"Income this month", num(sum.MonthlyIncome)},
		{"Expenses this month", num(sum.MonthlyExpenses)},
		{"Progress %", sum.ProgressPercent},
		{"Last reset", lastReset},
		{},
		{"Category", "Spent this month"},
	}
	for _, c := range sum.Breakdown {
		rows = append(rows, []any{c.DisplayName, num(c.Amount)})
	}

	for i, r := range rows {
		if err := setRow(f, SummarySheet, i+1, r...); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 24)
}

func writeTransactions(f *excelize.File, txs []ledger.Transaction) error {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b ledger.Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if err := setRow(f, TransactionsSheet, 1, "Date", "Title", "Type", "Category", "Payment", "Amount"); err != nil {
		return err
	}
	for i, t := range sorted {
		amount := num(t.Amount)
		if t.Kind == ledger.KindExpense {
			amount = -amount
		}
		err := setRow(f, TransactionsSheet, i+2,
			t.Timestamp.Format("2006-01-02"),
			t.Title,
			string(t.Kind),
			t.Category.DisplayName(),
			string(t.PaymentMethod),
			amount,
		)
		if err != nil {
			return fmt.Errorf("transaction row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(TransactionsSheet, "A", "A", 12); err != nil {
		return err
	}
	return f.SetColWidth(TransactionsSheet, "B", "B", 30)
}
