package services

import (
	"context"
	"time"

	"meloch/internal/backup"
	"meloch/internal/ledger"
	"meloch/internal/models"
	"meloch/internal/notification"
	"meloch/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, username, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
	DeleteUser(userID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Kind     *ledger.Kind
	Category *ledger.Category
	FromDate *time.Time
	ToDate   *time.Time
}

// Dashboard is the ledger summary together with the notification the
// client should show for it.
type Dashboard struct {
	ledger.Summary
	Notification notification.Intent `json:"notification"`
}

// Progress reports overall and per-envelope budget consumption.
type Progress struct {
	Percent   int                       `json:"percent"`
	Remaining ledger.Money              `json:"remaining"`
	Envelopes []ledger.EnvelopeProgress `json:"envelopes"`
}

// LedgerServicer is the only write path into a user's ledger state. Every
// mutation is serialized per user and persisted before it returns.
type LedgerServicer interface {
	GetState(ctx context.Context, userID uint) (ledger.State, error)
	RecordTransaction(ctx context.Context, userID uint, tx ledger.Transaction) (*ledger.Transaction, error)
	// DeleteTransaction reports false when no transaction has the id.
	DeleteTransaction(ctx context.Context, userID uint, id string) (bool, error)
	GetTransaction(ctx context.Context, userID uint, id string) (*ledger.Transaction, error)
	ListTransactions(ctx context.Context, userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[ledger.Transaction], error)
	ResetBudgetPeriod(ctx context.Context, userID uint) (*ledger.Summary, error)
	ResetBudgetAccounting(ctx context.Context, userID uint) (*ledger.Summary, error)
	SetCategoryBudget(ctx context.Context, userID uint, category ledger.BudgetCategory, amount ledger.Money) ([]ledger.EnvelopeProgress, error)
	GetCategoryBudgets(ctx context.Context, userID uint) ([]ledger.EnvelopeProgress, error)
	GetDashboard(ctx context.Context, userID uint) (*Dashboard, error)
	ExpensesSinceReset(ctx context.Context, userID uint) (map[ledger.Category]ledger.Money, error)
	GetProgress(ctx context.Context, userID uint) (*Progress, error)
	// Update applies fn to the current state under the user's lock and
	// persists the result.
	Update(ctx context.Context, userID uint, fn func(ledger.State) (ledger.State, error)) (ledger.State, error)
	DeleteLedger(ctx context.Context, userID uint) error
}

// CardServicer manages the cards and pocket money a user carries.
type CardServicer interface {
	AddCard(userID uint, card *models.Card) (*models.Card, error)
	GetUserCards(userID uint) ([]models.Card, error)
	DeleteCard(userID, cardID uint) error
	GetWallet(userID uint) (*models.Wallet, error)
	SetPocketMoney(userID uint, amount ledger.Money) (*models.Wallet, error)
	// ReplaceCards swaps every card of the user for cards in one transaction.
	ReplaceCards(userID uint, cards []models.Card) error
}

// ImportResult describes what an import restored.
type ImportResult struct {
	Transactions int              `json:"transactions"`
	Cards        int              `json:"cards"`
	Warnings     []backup.Warning `json:"warnings"`
}

// BackupServicer exports and imports the portable backup file.
type BackupServicer interface {
	Export(ctx context.Context, userID uint) ([]byte, error)
	Import(ctx context.Context, userID uint, data []byte) (*ImportResult, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType, resourceID, ipAddress string, changes map[string]any)
	GetUserAuditLogs(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
