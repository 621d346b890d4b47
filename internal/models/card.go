package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CardType is the kind of payment card.
type CardType string

const (
	CardTypeCredit CardType = "CREDIT"
	CardTypeDebit  CardType = "DEBIT"
)

// Card is a payment card kept in the user's wallet. The security code is
// never stored.
type Card struct {
	Base
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	ExternalID     string          `gorm:"size:64;index" json:"external_id"`
	CardNumber     string          `gorm:"size:32;not null" json:"card_number"`
	CardholderName string          `gorm:"not null" json:"cardholder_name"`
	BankName       string          `json:"bank_name"`
	ExpiryMonth    int             `gorm:"not null" json:"expiry_month"`
	ExpiryYear     int             `gorm:"not null" json:"expiry_year"`
	Type           CardType        `gorm:"size:16;not null;default:'DEBIT'" json:"type"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"balance"`
}

// ExpiryDate formats the expiry as MM/YY.
func (c *Card) ExpiryDate() string {
	return fmt.Sprintf("%02d/%02d", c.ExpiryMonth, c.ExpiryYear%100)
}
