package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"meloch/internal/backup"
	apperrors "meloch/internal/errors"
	"meloch/internal/ledger"
	"meloch/internal/logger"
	"meloch/internal/models"
)

// backupService assembles and restores backup files from the ledger, the
// user's cards and wallet.
type backupService struct {
	users   UserServicer
	ledgers LedgerServicer
	cards   CardServicer
	now     func() time.Time
}

// NewBackupService creates a new BackupServicer.
func NewBackupService(users UserServicer, ledgers LedgerServicer, cards CardServicer) BackupServicer {
	return &backupService{users: users, ledgers: ledgers, cards: cards, now: time.Now}
}

// Export builds the backup file for the user.
func (s *backupService) Export(ctx context.Context, userID uint) ([]byte, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	st, err := s.ledgers.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	cards, err := s.cards.GetUserCards(userID)
	if err != nil {
		return nil, err
	}
	wallet, err := s.cards.GetWallet(userID)
	if err != nil {
		return nil, err
	}

	snap := backup.Snapshot{
		ExportedAt:      s.now(),
		Username:        user.DisplayName(),
		Email:           user.Email,
		TotalBalance:    st.TotalBalance,
		PocketMoney:     wallet.PocketMoney,
		BudgetLeft:      st.BudgetLeft,
		TotalBudget:     st.MonthlyBudget,
		CategoryBudgets: st.CategoryBudgets,
		Transactions:    st.Transactions,
	}
	for _, c := range cards {
		snap.Cards = append(snap.Cards, backup.Card{
			ID:             c.ExternalID,
			CardNumber:     c.CardNumber,
			CardholderName: c.CardholderName,
			BankName:       c.BankName,
			ExpiryMonth:    c.ExpiryMonth,
			ExpiryYear:     c.ExpiryYear,
			Type:           c.Type,
			Balance:        c.Balance,
		})
	}

	data, err := backup.Encode(snap)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return data, nil
}

// restoreState replaces the persisted fields of current with those of the
// backup. The reset flag and time have no backup field and are kept.
func restoreState(current ledger.State, snap backup.Snapshot) ledger.State {
	next := current.Clone()
	next.TotalBalance = snap.TotalBalance
	next.BudgetLeft = snap.BudgetLeft
	next.MonthlyBudget = snap.TotalBudget
	if snap.CategoryBudgets != nil {
		for _, bc := range ledger.BudgetCategories {
			next.CategoryBudgets[bc] = snap.CategoryBudgets[bc]
		}
	}
	next.Transactions = append([]ledger.Transaction(nil), snap.Transactions...)
	return ledger.RecomputeCategoryTotals(next)
}

// Import replaces the user's ledger, cards and pocket money with the
// contents of data. Nothing is changed when the file is rejected.
func (s *backupService) Import(ctx context.Context, userID uint, data []byte) (*ImportResult, error) {
	snap, warnings, err := backup.Decode(data, s.now())
	switch {
	case errors.Is(err, backup.ErrMalformedBackup):
		return nil, apperrors.Wrap(apperrors.ErrMalformedBackup, err)
	case errors.Is(err, backup.ErrInvalidBackup):
		return nil, apperrors.Wrap(apperrors.ErrInvalidBackup, err)
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, t := range snap.Transactions {
		if err := t.Validate(); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidBackup, err.Error())
		}
	}

	pocket := snap.PocketMoney
	if pocket.IsNegative() {
		warnings = append(warnings, backup.Warning{Field: "financial.pocketMoney", Value: pocket.String(), Used: "0"})
		pocket = decimal.Zero
	}

	if _, err := s.ledgers.Update(ctx, userID, func(current ledger.State) (ledger.State, error) {
		return restoreState(current, snap), nil
	}); err != nil {
		return nil, err
	}

	cards := make([]models.Card, 0, len(snap.Cards))
	for _, c := range snap.Cards {
		cards = append(cards, models.Card{
			ExternalID:     c.ID,
			CardNumber:     c.CardNumber,
			CardholderName: c.CardholderName,
			BankName:       c.BankName,
			ExpiryMonth:    c.ExpiryMonth,
			ExpiryYear:     c.ExpiryYear,
			Type:           c.Type,
			Balance:        c.Balance,
		})
	}
	if err := s.cards.ReplaceCards(userID, cards); err != nil {
		return nil, err
	}
	if _, err := s.cards.SetPocketMoney(userID, pocket); err != nil {
		return nil, err
	}

	for _, w := range warnings {
		logger.Get().Warnw("backup value replaced on import", "user_id", userID, "warning", w.String())
	}
	logger.Get().Infow("backup imported",
		"user_id", userID,
		"transactions", len(snap.Transactions),
		"cards", len(cards),
		"warnings", len(warnings),
	)

	if warnings == nil {
		warnings = []backup.Warning{}
	}
	return &ImportResult{
		Transactions: len(snap.Transactions),
		Cards:        len(cards),
		Warnings:     warnings,
	}, nil
}
