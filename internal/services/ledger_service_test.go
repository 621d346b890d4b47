package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meloch/internal/events"
	"meloch/internal/ledger"
	"meloch/internal/notification"
	"meloch/internal/pagination"
	"meloch/internal/store"
	"meloch/internal/testutil"
)

var testNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

// failingStore loads a fresh state but refuses to save.
type failingStore struct {
	saveErr error
}

func (f *failingStore) Load(context.Context, uint) (ledger.State, error) {
	return ledger.NewState(), nil
}

func (f *failingStore) Save(context.Context, uint, ledger.State) error { return f.saveErr }

func (f *failingStore) Delete(context.Context, uint) error { return f.saveErr }

func newTestLedgerService(t *testing.T) (*ledgerService, *store.MemoryStore, *events.MemoryPublisher) {
	t.Helper()
	ledgers := store.NewMemoryStore(ledger.DefaultMonthlyBudget)
	pub := events.NewMemoryPublisher(0)
	svc := NewLedgerService(ledgers, notification.NewPolicy(decimal.Zero), events.NewDispatcher(pub)).(*ledgerService)
	svc.now = func() time.Time { return testNow }
	return svc, ledgers, pub
}

func expenseTx(cat ledger.Category, amount int64) ledger.Transaction {
	return testutil.NewTestTransaction(ledger.KindExpense, cat, amount, testNow.Add(-time.Hour))
}

func TestLedgerService_RecordTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("persists_state", func(t *testing.T) {
		svc, ledgers, _ := newTestLedgerService(t)

		tx, err := svc.RecordTransaction(ctx, 1, expenseTx(ledger.CategoryFood, 1500))
		require.NoError(t, err)

		st, err := ledgers.Load(ctx, 1)
		require.NoError(t, err)
		assert.True(t, st.TotalBalance.Equal(decimal.NewFromInt(-1500)))
		require.Len(t, st.Transactions, 1)
		assert.Equal(t, tx.ID, st.Transactions[0].ID)
	})

	t.Run("fills_id_and_timestamp", func(t *testing.T) {
		svc, _, _ := newTestLedgerService(t)

		tx, err := svc.RecordTransaction(ctx, 1, ledger.Transaction{
			Title: "Bus", Amount: decimal.NewFromInt(80), Kind: ledger.KindExpense,
			Category: ledger.CategoryTransport, PaymentMethod: ledger.PaymentCash,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, tx.ID)
		assert.True(t, tx.Timestamp.Equal(testNow))
	})

	t.Run("payment_method_defaults_to_cash", func(t *testing.T) {
		svc, ledgers, _ := newTestLedgerService(t)

		tx, err := svc.RecordTransaction(ctx, 1, ledger.Transaction{
			Amount: decimal.NewFromInt(10), Kind: ledger.KindExpense, Category: ledger.CategoryFood,
		})
		require.NoError(t, err)
		assert.Equal(t, ledger.PaymentCash, tx.PaymentMethod)

		st, _ := ledgers.Load(ctx, 1)
		require.Len(t, st.Transactions, 1)
		assert.Equal(t, ledger.PaymentCash, st.Transactions[0].PaymentMethod)
	})

	t.Run("rejects_date_before_last_reset", func(t *testing.T) {
		svc, ledgers, _ := newTestLedgerService(t)
		_, err := svc.ResetBudgetPeriod(ctx, 1)
		require.NoError(t, err)
		before, _ := ledgers.Load(ctx, 1)

		for _, at := range []time.Time{testNow.Add(-time.Hour), testNow} {
			backdated := testutil.NewTestTransaction(ledger.KindExpense, ledger.CategoryFood, 5000, at)
			_, err = svc.RecordTransaction(ctx, 1, backdated)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}

		after, _ := ledgers.Load(ctx, 1)
		assert.True(t, after.Equal(before), "nothing saved")

		// Once accepted, the running totals and the log-derived figures agree.
		later := testutil.NewTestTransaction(ledger.KindExpense, ledger.CategoryFood, 5000, testNow.Add(time.Hour))
		_, err = svc.RecordTransaction(ctx, 1, later)
		require.NoError(t, err)

		st, _ := ledgers.Load(ctx, 1)
		derived := ledger.ExpensesSinceReset(st)
		assert.True(t, derived[ledger.CategoryFood].Equal(st.CategoryExpenseTotals[ledger.CategoryFood]))
		assert.True(t, st.BudgetLeft.Equal(decimal.NewFromInt(16000)))
	})

	t.Run("invalid_amount", func(t *testing.T) {
		svc, ledgers, _ := newTestLedgerService(t)

		bad := expenseTx(ledger.CategoryFood, 0)
		_, err := svc.RecordTransaction(ctx, 1, bad)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")

		st, _ := ledgers.Load(ctx, 1)
		assert.True(t, st.Equal(ledger.NewState()), "nothing saved")
	})

	t.Run("invalid_category", func(t *testing.T) {
		svc, _, _ := newTestLedgerService(t)

		bad := expenseTx(ledger.CategoryFood, 10)
		bad.Category = "PETS"
		_, err := svc.RecordTransaction(ctx, 1, bad)
		testutil.AssertAppError(t, err, "INVALID_CATEGORY")
	})

	t.Run("duplicate_id", func(t *testing.T) {
		svc, _, _ := newTestLedgerService(t)

		x := expenseTx(ledger.CategoryFood, 10)
		_, err := svc.RecordTransaction(ctx, 1, x)
		require.NoError(t, err)
		_, err = svc.RecordTransaction(ctx, 1, x)
		testutil.AssertAppError(t, err, "DUPLICATE_TRANSACTION")
	})

	t.Run("store_failure", func(t *testing.T) {
		svc := NewLedgerService(&failingStore{saveErr: errors.New("disk full")}, notification.NewPolicy(decimal.Zero), nil)

		_, err := svc.RecordTransaction(ctx, 1, expenseTx(ledger.CategoryFood, 10))
		testutil.AssertAppError(t, err, "LEDGER_STORE_ERROR")
	})
}

func TestLedgerService_DeleteTransaction(t *testing.T) {
	ctx := context.Background()
	svc, ledgers, _ := newTestLedgerService(t)

	x, err := svc.RecordTransaction(ctx, 1, expenseTx(ledger.CategoryFood, 300))
	require.NoError(t, err)

	deleted, err := svc.DeleteTransaction(ctx, 1, x.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	st, _ := ledgers.Load(ctx, 1)
	assert.True(t, st.Equal(ledger.NewState()), "delete restores the prior state")

	deleted, err = svc.DeleteTransaction(ctx, 1, x.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "missing id is informational")
}

func TestLedgerService_GetTransaction(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedgerService(t)

	x, err := svc.RecordTransaction(ctx, 1, expenseTx(ledger.CategoryHealth, 42))
	require.NoError(t, err)

	got, err := svc.GetTransaction(ctx, 1, x.ID)
	require.NoError(t, err)
	assert.True(t, got.Equal(*x))

	_, err = svc.GetTransaction(ctx, 2, x.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}

func TestLedgerService_ListTransactions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedgerService(t)

	for i := 0; i < 5; i++ {
		x := testutil.NewTestTransaction(ledger.KindExpense, ledger.CategoryFood, 10, testNow.Add(time.Duration(-i)*time.Hour))
		_, err := svc.RecordTransaction(ctx, 1, x)
		require.NoError(t, err)
	}
	_, err := svc.RecordTransaction(ctx, 1, testutil.NewTestTransaction(ledger.KindIncome, ledger.CategorySalary, 1000, testNow.Add(-10*time.Hour)))
	require.NoError(t, err)

	t.Run("newest_first_paginated", func(t *testing.T) {
		page, err := svc.ListTransactions(ctx, 1, pagination.PageRequest{Page: 1, PageSize: 4}, TransactionFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(6), page.TotalItems)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Data, 4)
		assert.True(t, page.Data[0].Timestamp.After(page.Data[1].Timestamp))

		last, err := svc.ListTransactions(ctx, 1, pagination.PageRequest{Page: 2, PageSize: 4}, TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, last.Data, 2)
		assert.Equal(t, ledger.CategorySalary, last.Data[1].Category)
	})

	t.Run("filters", func(t *testing.T) {
		kind := ledger.KindIncome
		page, err := svc.ListTransactions(ctx, 1, pagination.PageRequest{}, TransactionFilter{Kind: &kind})
		require.NoError(t, err)
		assert.Len(t, page.Data, 1)

		from := testNow.Add(-90 * time.Minute)
		page, err = svc.ListTransactions(ctx, 1, pagination.PageRequest{}, TransactionFilter{FromDate: &from})
		require.NoError(t, err)
		assert.Len(t, page.Data, 2)
	})

	t.Run("page_past_end", func(t *testing.T) {
		page, err := svc.ListTransactions(ctx, 1, pagination.PageRequest{Page: 9, PageSize: 20}, TransactionFilter{})
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.NotNil(t, page.Data)
	})
}

func TestLedgerService_ResetBudgetPeriod(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestLedgerService(t)

	_, err := svc.RecordTransaction(ctx, 1, expenseTx(ledger.CategoryFood, 1000))
	require.NoError(t, err)

	summary, err := svc.ResetBudgetPeriod(ctx, 1)
	require.NoError(t, err)
	assert.True(t, summary.TotalBalance.Equal(decimal.NewFromInt(-22000)))
	assert.True(t, summary.BudgetResetActive)
	require.NotNil(t, summary.LastResetAt)
	assert.True(t, summary.LastResetAt.Equal(testNow))

	var resets int
	for _, e := range pub.Events() {
		if e.Type == events.TypeBudgetReset {
			resets++
		}
	}
	assert.Equal(t, 1, resets)
}

func TestLedgerService_ResetBudgetAccounting(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedgerService(t)

	summary, err := svc.ResetBudgetAccounting(ctx, 1)
	require.NoError(t, err)
	assert.True(t, summary.TotalBalance.IsZero(), "balance untouched")
	assert.True(t, summary.BudgetResetActive)
}

func TestLedgerService_CategoryBudgets(t *testing.T) {
	ctx := context.Background()
	svc, ledgers, _ := newTestLedgerService(t)

	envelopes, err := svc.SetCategoryBudget(ctx, 1, ledger.BudgetFood, decimal.NewFromInt(8000))
	require.NoError(t, err)
	require.Len(t, envelopes, len(ledger.BudgetCategories))

	st, _ := ledgers.Load(ctx, 1)
	assert.True(t, st.MonthlyBudget.Equal(decimal.NewFromInt(24000)))

	_, err = svc.SetCategoryBudget(ctx, 1, ledger.BudgetFood, decimal.NewFromInt(-1))
	testutil.AssertAppError(t, err, "INVALID_AMOUNT")

	_, err = svc.SetCategoryBudget(ctx, 1, "TRAVEL", decimal.NewFromInt(1))
	testutil.AssertAppError(t, err, "INVALID_CATEGORY")

	got, err := svc.GetCategoryBudgets(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, envelopes, got)
}

func TestLedgerService_DashboardNotifies(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestLedgerService(t)

	_, err := svc.ResetBudgetPeriod(ctx, 1)
	require.NoError(t, err)
	spend := testutil.NewTestTransaction(ledger.KindExpense, ledger.CategoryShopping, 17000, testNow.Add(time.Minute))
	_, err = svc.RecordTransaction(ctx, 1, spend)
	require.NoError(t, err)

	dash, err := svc.GetDashboard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, notification.KindLowBudget, dash.Notification.Kind)
	assert.True(t, dash.Notification.Remaining.Equal(decimal.NewFromInt(4000)))

	// A read never publishes; the write above did, exactly once.
	var lows int
	for _, e := range pub.Events() {
		if e.Type == events.TypeBudgetLow {
			lows++
		}
	}
	assert.Equal(t, 1, lows)
}

func TestLedgerService_ExpensesAndProgress(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedgerService(t)

	_, err := svc.RecordTransaction(ctx, 1, expenseTx(ledger.CategoryFood, 2100))
	require.NoError(t, err)

	expenses, err := svc.ExpensesSinceReset(ctx, 1)
	require.NoError(t, err)
	assert.True(t, expenses[ledger.CategoryFood].Equal(decimal.NewFromInt(2100)))

	progress, err := svc.GetProgress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, progress.Percent)
	assert.Len(t, progress.Envelopes, len(ledger.BudgetCategories))
}

func TestLedgerService_ReadsWaitForUserLock(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedgerService(t)

	unlock := svc.locks.lock(1)
	done := make(chan error, 1)
	go func() {
		_, err := svc.GetDashboard(ctx, 1)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("dashboard read while a mutation held the user's lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dashboard read never completed")
	}
}

func TestLedgerService_ConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	svc, ledgers, _ := newTestLedgerService(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordTransaction(ctx, 7, expenseTx(ledger.CategoryFood, 1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := ledgers.Load(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, st.Transactions, n, "no lost updates")
	assert.True(t, st.TotalBalance.Equal(decimal.NewFromInt(-n)))
	assert.Equal(t, 0, svc.locks.size())
}

func TestLedgerService_DeleteLedger(t *testing.T) {
	ctx := context.Background()
	svc, ledgers, _ := newTestLedgerService(t)

	_, err := svc.RecordTransaction(ctx, 1, expenseTx(ledger.CategoryFood, 10))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLedger(ctx, 1))

	st, _ := ledgers.Load(ctx, 1)
	assert.Empty(t, st.Transactions)
}
