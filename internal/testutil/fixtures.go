package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"meloch/internal/ledger"
	"meloch/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Username: fmt.Sprintf("user%d", nextID()),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCard creates a debit card with the given balance.
func CreateTestCard(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Card {
	t.Helper()

	card := &models.Card{
		UserID:         userID,
		ExternalID:     fmt.Sprintf("card-%d", nextID()),
		CardNumber:     "4111111111111111",
		CardholderName: "Test Holder",
		BankName:       "Test Bank",
		ExpiryMonth:    12,
		ExpiryYear:     2030,
		Type:           models.CardTypeDebit,
		Balance:        decimal.NewFromInt(balance),
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test card: %v", err)
	}
	return card
}

// CreateTestWallet creates a wallet holding the given pocket money.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID uint, pocketMoney int64) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:      userID,
		PocketMoney: decimal.NewFromInt(pocketMoney),
		Currency:    "LKR",
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// NewTestTransaction builds a ledger transaction with a unique id, dated at.
func NewTestTransaction(kind ledger.Kind, category ledger.Category, amount int64, at time.Time) ledger.Transaction {
	return ledger.Transaction{
		ID:            fmt.Sprintf("test-tx-%d", nextID()),
		Title:         category.DisplayName(),
		Amount:        decimal.NewFromInt(amount),
		Kind:          kind,
		Category:      category,
		Timestamp:     at,
		PaymentMethod: ledger.PaymentCash,
	}
}
