package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "meloch/internal/errors"
	"meloch/internal/ledger"
	"meloch/internal/models"
	"meloch/internal/uuid"
)

const defaultCurrency = "LKR"

// cardService manages cards and pocket money.
type cardService struct {
	db       *gorm.DB
	currency string
}

// NewCardService creates a new CardServicer. Wallets are created in
// currency, or LKR when empty.
func NewCardService(db *gorm.DB, currency string) CardServicer {
	if currency == "" {
		currency = defaultCurrency
	}
	return &cardService{db: db, currency: currency}
}

func validateCard(card *models.Card) error {
	if card.CardNumber == "" || card.CardholderName == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "card number and cardholder name are required")
	}
	if card.ExpiryMonth < 1 || card.ExpiryMonth > 12 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "expiry month must be between 1 and 12")
	}
	if card.Type != models.CardTypeCredit && card.Type != models.CardTypeDebit {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "card type must be CREDIT or DEBIT")
	}
	return nil
}

// AddCard stores a new card for the user.
func (s *cardService) AddCard(userID uint, card *models.Card) (*models.Card, error) {
	if err := validateCard(card); err != nil {
		return nil, err
	}

	card.ID = 0
	card.UserID = userID
	if card.ExternalID == "" {
		card.ExternalID = uuid.New()
	}
	if card.BankName == "" {
		card.BankName = "BANK"
	}

	if err := s.db.Create(card).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return card, nil
}

// GetUserCards lists the user's cards in creation order.
func (s *cardService) GetUserCards(userID uint) ([]models.Card, error) {
	var cards []models.Card
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return cards, nil
}

// DeleteCard removes a card owned by the user.
func (s *cardService) DeleteCard(userID, cardID uint) error {
	res := s.db.Where("id = ? AND user_id = ?", cardID, userID).Delete(&models.Card{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCardNotFound
	}
	return nil
}

// GetWallet returns the user's wallet, or an empty one if none was saved.
func (s *cardService) GetWallet(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Wallet{UserID: userID, PocketMoney: decimal.Zero, Currency: s.currency}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// SetPocketMoney sets the cash amount held outside of cards.
func (s *cardService) SetPocketMoney(userID uint, amount ledger.Money) (*models.Wallet, error) {
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "Pocket money must not be negative")
	}

	wallet := models.Wallet{UserID: userID, PocketMoney: amount, Currency: s.currency}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pocket_money", "updated_at"}),
	}).Create(&wallet).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetWallet(userID)
}

// ReplaceCards deletes every card of the user and inserts cards.
func (s *cardService) ReplaceCards(userID uint, cards []models.Card) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		if len(cards) == 0 {
			return nil
		}
		for i := range cards {
			cards[i].ID = 0
			cards[i].UserID = userID
		}
		return tx.Create(&cards).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
