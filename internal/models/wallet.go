package models

import "github.com/shopspring/decimal"

// Wallet holds cash the user carries outside of any card.
type Wallet struct {
	Base
	UserID      uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	PocketMoney decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"pocket_money"`
	Currency    string          `gorm:"size:3;not null;default:'LKR'" json:"currency"`
}
