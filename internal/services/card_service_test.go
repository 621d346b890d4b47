package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"meloch/internal/models"
	"meloch/internal/testutil"
)

func newCard(cardType models.CardType) *models.Card {
	return &models.Card{
		CardNumber:     "5500000000000004",
		CardholderName: "K SILVA",
		ExpiryMonth:    3,
		ExpiryYear:     28,
		Type:           cardType,
		Balance:        decimal.NewFromInt(2500),
	}
}

func TestAddCard(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db, "")

		user := testutil.CreateTestUser(t, db)
		card, err := svc.AddCard(user.ID, newCard(models.CardTypeCredit))
		testutil.AssertNoError(t, err)

		if card.ID == 0 {
			t.Fatal("expected non-zero card ID")
		}
		if card.ExternalID == "" {
			t.Error("expected external id to be generated")
		}
		if card.BankName != "BANK" {
			t.Errorf("expected default bank name BANK, got %s", card.BankName)
		}
		if card.ExpiryDate() != "03/28" {
			t.Errorf("expected expiry 03/28, got %s", card.ExpiryDate())
		}
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db, "")

		user := testutil.CreateTestUser(t, db)
		_, err := svc.AddCard(user.ID, newCard("PREPAID"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db, "")

		user := testutil.CreateTestUser(t, db)
		card := newCard(models.CardTypeDebit)
		card.ExpiryMonth = 13
		_, err := svc.AddCard(user.ID, card)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserCards(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCardService(db, "")

	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	testutil.CreateTestCard(t, db, user.ID, 10)
	testutil.CreateTestCard(t, db, user.ID, 20)
	testutil.CreateTestCard(t, db, other.ID, 30)

	cards, err := svc.GetUserCards(user.ID)
	testutil.AssertNoError(t, err)
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	empty, err := svc.GetUserCards(99999)
	testutil.AssertNoError(t, err)
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}

func TestDeleteCard(t *testing.T) {
	t.Run("owned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db, "")

		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCard(t, db, user.ID, 10)

		testutil.AssertNoError(t, svc.DeleteCard(user.ID, card.ID))
		cards, _ := svc.GetUserCards(user.ID)
		if len(cards) != 0 {
			t.Errorf("expected no cards, got %d", len(cards))
		}
	})

	t.Run("other_users_card", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db, "")

		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCard(t, db, owner.ID, 10)

		testutil.AssertAppError(t, svc.DeleteCard(intruder.ID, card.ID), "CARD_NOT_FOUND")
	})
}

func TestPocketMoney(t *testing.T) {
	t.Run("default_wallet", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db, "USD")

		wallet, err := svc.GetWallet(1)
		testutil.AssertNoError(t, err)
		if !wallet.PocketMoney.IsZero() || wallet.Currency != "USD" {
			t.Errorf("expected empty USD wallet, got %s %s", wallet.PocketMoney, wallet.Currency)
		}
	})

	t.Run("set_twice_upserts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db, "")

		user := testutil.CreateTestUser(t, db)
		_, err := svc.SetPocketMoney(user.ID, decimal.NewFromInt(100))
		testutil.AssertNoError(t, err)
		wallet, err := svc.SetPocketMoney(user.ID, decimal.RequireFromString("250.5"))
		testutil.AssertNoError(t, err)

		if !wallet.PocketMoney.Equal(decimal.RequireFromString("250.5")) {
			t.Errorf("expected 250.5, got %s", wallet.PocketMoney)
		}
		var count int64
		db.Model(&models.Wallet{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected a single wallet row, got %d", count)
		}
	})

	t.Run("negative", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCardService(db, "")

		_, err := svc.SetPocketMoney(1, decimal.NewFromInt(-1))
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})
}

func TestReplaceCards(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCardService(db, "")

	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestCard(t, db, user.ID, 10)
	testutil.CreateTestCard(t, db, user.ID, 20)

	err := svc.ReplaceCards(user.ID, []models.Card{*newCard(models.CardTypeDebit)})
	testutil.AssertNoError(t, err)

	cards, _ := svc.GetUserCards(user.ID)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card after replace, got %d", len(cards))
	}
	if cards[0].CardholderName != "K SILVA" {
		t.Errorf("expected replaced card, got %s", cards[0].CardholderName)
	}
}
