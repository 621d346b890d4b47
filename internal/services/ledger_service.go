package services

import (
	"context"
	"errors"
	"slices"
	"time"

	apperrors "meloch/internal/errors"
	"meloch/internal/ledger"
	"meloch/internal/logger"
	"meloch/internal/notification"
	"meloch/internal/pagination"
	"meloch/internal/store"
	"meloch/internal/uuid"
)

// Notifier receives the notification intent after every ledger mutation.
// *events.Dispatcher implements it.
type Notifier interface {
	Notify(ctx context.Context, userID uint, intent notification.Intent) bool
	BudgetReset(ctx context.Context, userID uint, budget ledger.Money)
	Forget(userID uint)
}

// ledgerService serializes all mutations of a user's ledger and persists
// each resulting state before returning it.
type ledgerService struct {
	store    store.LedgerStore
	policy   notification.Policy
	notifier Notifier
	locks    *userLocks
	now      func() time.Time
}

// NewLedgerService creates a new LedgerServicer. notifier may be nil.
func NewLedgerService(ledgers store.LedgerStore, policy notification.Policy, notifier Notifier) LedgerServicer {
	return &ledgerService{
		store:    ledgers,
		policy:   policy,
		notifier: notifier,
		locks:    newUserLocks(),
		now:      time.Now,
	}
}

// mapLedgerError converts engine errors into AppErrors. AppErrors pass
// through unchanged.
func mapLedgerError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ledger.ErrInvalidAmount):
		return apperrors.ErrInvalidAmount
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return apperrors.ErrDuplicateTransaction
	case errors.Is(err, ledger.ErrInvalidTransaction):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

func (s *ledgerService) load(ctx context.Context, userID uint) (ledger.State, error) {
	st, err := s.store.Load(ctx, userID)
	if err != nil {
		return ledger.State{}, apperrors.Wrap(apperrors.ErrLedgerStore, err)
	}
	return st, nil
}

// read loads the state under the user's lock so it never interleaves with
// a mutation in progress.
func (s *ledgerService) read(ctx context.Context, userID uint) (ledger.State, error) {
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.load(ctx, userID)
}

// mutate runs fn under the user's lock. When fn reports a change the new
// state is saved and the notifier consulted; on any error nothing is saved.
func (s *ledgerService) mutate(ctx context.Context, userID uint, fn func(ledger.State) (ledger.State, bool, error)) (ledger.State, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	current, err := s.load(ctx, userID)
	if err != nil {
		return ledger.State{}, err
	}

	next, changed, err := fn(current)
	if err != nil {
		return current, mapLedgerError(err)
	}
	if !changed {
		return current, nil
	}

	if err := s.store.Save(ctx, userID, next); err != nil {
		logger.Get().Errorw("failed to save ledger", "error", err, "user_id", userID)
		return current, apperrors.Wrap(apperrors.ErrLedgerStore, err)
	}

	s.notify(ctx, userID, next)
	return next, nil
}

func (s *ledgerService) notify(ctx context.Context, userID uint, st ledger.State) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, s.policy.ForState(st, s.now()))
}

// GetState returns the user's current ledger state.
func (s *ledgerService) GetState(ctx context.Context, userID uint) (ledger.State, error) {
	return s.read(ctx, userID)
}

// Update applies fn to the current state and persists the result.
func (s *ledgerService) Update(ctx context.Context, userID uint, fn func(ledger.State) (ledger.State, error)) (ledger.State, error) {
	return s.mutate(ctx, userID, func(st ledger.State) (ledger.State, bool, error) {
		next, err := fn(st)
		return next, err == nil, err
	})
}

// RecordTransaction records tx. A missing id, timestamp or payment method
// is filled in, the method defaulting to cash. A timestamp at or before the
// last budget reset is rejected: the running category totals would count it
// while the period figures derived from the log would not.
func (s *ledgerService) RecordTransaction(ctx context.Context, userID uint, tx ledger.Transaction) (*ledger.Transaction, error) {
	if !tx.Category.Valid() {
		return nil, apperrors.ErrInvalidCategory
	}
	if tx.ID == "" {
		tx.ID = uuid.New()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now()
	}
	if tx.PaymentMethod == "" {
		tx.PaymentMethod = ledger.PaymentCash
	}

	_, err := s.Update(ctx, userID, func(st ledger.State) (ledger.State, error) {
		if st.LastResetAt != nil && !tx.Timestamp.After(*st.LastResetAt) {
			return st, apperrors.WithMessage(apperrors.ErrInvalidInput, "Transaction date must be after the last budget reset")
		}
		return ledger.RecordTransaction(st, tx)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("transaction recorded",
		"user_id", userID,
		"transaction_id", tx.ID,
		"kind", tx.Kind,
		"category", tx.Category,
	)
	return &tx, nil
}

// DeleteTransaction removes the transaction with id. A missing id is
// reported as false and leaves the stored state untouched.
func (s *ledgerService) DeleteTransaction(ctx context.Context, userID uint, id string) (bool, error) {
	var found bool
	_, err := s.mutate(ctx, userID, func(st ledger.State) (ledger.State, bool, error) {
		next, ok := ledger.DeleteTransaction(st, id)
		found = ok
		return next, ok, nil
	})
	if err != nil {
		return false, err
	}
	if found {
		logger.Get().Infow("transaction deleted", "user_id", userID, "transaction_id", id)
	}
	return found, nil
}

// GetTransaction retrieves a single transaction by id.
func (s *ledgerService) GetTransaction(ctx context.Context, userID uint, id string) (*ledger.Transaction, error) {
	st, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	tx, ok := st.FindTransaction(id)
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	return &tx, nil
}

func (f TransactionFilter) matches(t ledger.Transaction) bool {
	if f.Kind != nil && t.Kind != *f.Kind {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.FromDate != nil && t.Timestamp.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && t.Timestamp.After(*f.ToDate) {
		return false
	}
	return true
}

// ListTransactions returns the user's transactions, newest first.
func (s *ledgerService) ListTransactions(ctx context.Context, userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[ledger.Transaction], error) {
	page.Defaults()

	st, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched := make([]ledger.Transaction, 0, len(st.Transactions))
	for _, t := range st.Transactions {
		if filter.matches(t) {
			matched = append(matched, t)
		}
	}
	slices.SortStableFunc(matched, func(a, b ledger.Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	resp := pagination.Slice(matched, page)
	return &resp, nil
}

// ResetBudgetPeriod starts a new budget period, deducting the monthly
// budget from the balance.
func (s *ledgerService) ResetBudgetPeriod(ctx context.Context, userID uint) (*ledger.Summary, error) {
	return s.reset(ctx, userID, ledger.ResetBudgetPeriod)
}

// ResetBudgetAccounting starts a new budget period without touching the
// balance. It exists for repairs and is not exposed over HTTP.
func (s *ledgerService) ResetBudgetAccounting(ctx context.Context, userID uint) (*ledger.Summary, error) {
	return s.reset(ctx, userID, ledger.ResetBudgetAccounting)
}

func (s *ledgerService) reset(ctx context.Context, userID uint, fn func(ledger.State, time.Time) ledger.State) (*ledger.Summary, error) {
	now := s.now()
	st, err := s.Update(ctx, userID, func(st ledger.State) (ledger.State, error) {
		return fn(st, now), nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.BudgetReset(ctx, userID, st.MonthlyBudget)
	}
	logger.Get().Infow("budget period reset",
		"user_id", userID,
		"monthly_budget", st.MonthlyBudget.String(),
		"total_balance", st.TotalBalance.String(),
	)

	summary := ledger.Summarize(st, now)
	return &summary, nil
}

// SetCategoryBudget sets one envelope; the monthly budget becomes the sum
// of all envelopes.
func (s *ledgerService) SetCategoryBudget(ctx context.Context, userID uint, category ledger.BudgetCategory, amount ledger.Money) ([]ledger.EnvelopeProgress, error) {
	if !category.Valid() {
		return nil, apperrors.ErrInvalidCategory
	}
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "Amount must not be negative")
	}

	st, err := s.Update(ctx, userID, func(st ledger.State) (ledger.State, error) {
		return ledger.SetCategoryBudget(st, category, amount)
	})
	if err != nil {
		return nil, err
	}
	return ledger.BudgetCategoryProgress(st), nil
}

// GetCategoryBudgets returns the progress of each envelope.
func (s *ledgerService) GetCategoryBudgets(ctx context.Context, userID uint) ([]ledger.EnvelopeProgress, error) {
	st, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.BudgetCategoryProgress(st), nil
}

// GetDashboard builds the summary and the notification to display.
func (s *ledgerService) GetDashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	st, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Dashboard{
		Summary:      ledger.Summarize(st, now),
		Notification: s.policy.ForState(st, now),
	}, nil
}

// ExpensesSinceReset returns per-category spending in the current period.
func (s *ledgerService) ExpensesSinceReset(ctx context.Context, userID uint) (map[ledger.Category]ledger.Money, error) {
	st, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.ExpensesSinceReset(st), nil
}

// GetProgress reports how much of the budget has been consumed.
func (s *ledgerService) GetProgress(ctx context.Context, userID uint) (*Progress, error) {
	st, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Progress{
		Percent:   ledger.ProgressPercent(st, now),
		Remaining: ledger.EffectiveBudgetRemaining(st, now),
		Envelopes: ledger.BudgetCategoryProgress(st),
	}, nil
}

// DeleteLedger removes the user's ledger and any remembered notification.
func (s *ledgerService) DeleteLedger(ctx context.Context, userID uint) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	if err := s.store.Delete(ctx, userID); err != nil {
		return apperrors.Wrap(apperrors.ErrLedgerStore, err)
	}
	if s.notifier != nil {
		s.notifier.Forget(userID)
	}
	return nil
}
