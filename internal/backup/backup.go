// Package backup reads and writes the portable JSON backup file.
//
// The format is shared with the mobile client: camelCase keys, amounts as
// plain JSON numbers and dates as epoch milliseconds. Decoding is lenient
// about individual fields and strict about the file identity.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"meloch/internal/ledger"
	"meloch/internal/models"
	"meloch/internal/uuid"
)

// File identity written into metadata.
const (
	AppName       = "Meloch"
	FormatVersion = "1.0"
	dateLayout    = "2006-01-02 15:04:05"
)

var (
	// ErrInvalidBackup means the JSON parsed but is not a backup of this app.
	ErrInvalidBackup = errors.New("backup: not a Meloch backup")
	// ErrMalformedBackup means the file is not valid JSON of the backup shape.
	ErrMalformedBackup = errors.New("backup: malformed file")
)

// Warning records a field the decoder replaced or dropped.
type Warning = ledger.DecodeWarning

// Card is a card entry in a backup. The security code is never carried.
type Card struct {
	ID             string
	CardNumber     string
	CardholderName string
	BankName       string
	ExpiryMonth    int
	ExpiryYear     int
	Type           models.CardType
	Balance        decimal.Decimal
}

// Snapshot is everything a backup carries.
type Snapshot struct {
	ExportedAt   time.Time
	Username     string
	Email        string
	TotalBalance decimal.Decimal
	PocketMoney  decimal.Decimal
	BudgetLeft   decimal.Decimal
	TotalBudget  decimal.Decimal
	// CategoryBudgets is nil when the file has no budgetCategories object.
	CategoryBudgets map[ledger.BudgetCategory]decimal.Decimal
	Cards           []Card
	Transactions    []ledger.Transaction
}

type fileJSON struct {
	Metadata     *metadataJSON     `json:"metadata"`
	User         userJSON          `json:"user"`
	Financial    *financialJSON    `json:"financial"`
	Cards        []cardJSON        `json:"cards"`
	Transactions []transactionJSON `json:"transactions"`
}

type metadataJSON struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
}

type userJSON struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type financialJSON struct {
	TotalBalance     *json.Number          `json:"totalBalance"`
	PocketMoney      *json.Number          `json:"pocketMoney"`
	BudgetLeft       *json.Number          `json:"budgetLeft"`
	TotalBudget      *json.Number          `json:"totalBudget"`
	BudgetCategories *budgetCategoriesJSON `json:"budgetCategories,omitempty"`
}

type budgetCategoriesJSON struct {
	Entertainment *json.Number `json:"entertainment"`
	Food          *json.Number `json:"food"`
	Transport     *json.Number `json:"transport"`
	Lifestyle     *json.Number `json:"lifestyle"`
}

type cardJSON struct {
	ID             *string      `json:"id"`
	CardNumber     string       `json:"cardNumber"`
	CardholderName string       `json:"cardholderName"`
	BankName       *string      `json:"bankName"`
	ExpiryMonth    *int         `json:"expiryMonth"`
	ExpiryYear     *int         `json:"expiryYear"`
	ExpiryDate     string       `json:"expiryDate,omitempty"`
	Type           string       `json:"type"`
	Balance        *json.Number `json:"balance"`
}

type transactionJSON struct {
	ID            *string      `json:"id"`
	Title         string       `json:"title"`
	Amount        *json.Number `json:"amount"`
	Category      *string      `json:"category"`
	Type          *string      `json:"type"`
	PaymentMethod *string      `json:"paymentMethod"`
	Date          *int64       `json:"date"`
}

func number(d decimal.Decimal) *json.Number {
	n := json.Number(d.String())
	return &n
}

// Encode writes s in the backup format.
func Encode(s Snapshot) ([]byte, error) {
	f := fileJSON{
		Metadata: &metadataJSON{
			App:       AppName,
			Version:   FormatVersion,
			Timestamp: s.ExportedAt.UnixMilli(),
			Date:      s.ExportedAt.Format(dateLayout),
		},
		User: userJSON{Username: s.Username, Email: s.Email},
		Financial: &financialJSON{
			TotalBalance: number(s.TotalBalance),
			PocketMoney:  number(s.PocketMoney),
			BudgetLeft:   number(s.BudgetLeft),
			TotalBudget:  number(s.TotalBudget),
		},
		Cards:        make([]cardJSON, 0, len(s.Cards)),
		Transactions: make([]transactionJSON, 0, len(s.Transactions)),
	}
	if s.CategoryBudgets != nil {
		f.Financial.BudgetCategories = &budgetCategoriesJSON{
			Entertainment: number(s.CategoryBudgets[ledger.BudgetEntertainment]),
			Food:          number(s.CategoryBudgets[ledger.BudgetFood]),
			Transport:     number(s.CategoryBudgets[ledger.BudgetTransport]),
			Lifestyle:     number(s.CategoryBudgets[ledger.BudgetLifestyle]),
		}
	}

	for _, c := range s.Cards {
		id, bank := c.ID, c.BankName
		month, year := c.ExpiryMonth, c.ExpiryYear
		f.Cards = append(f.Cards, cardJSON{
			ID:             &id,
			CardNumber:     c.CardNumber,
			CardholderName: c.CardholderName,
			BankName:       &bank,
			ExpiryMonth:    &month,
			ExpiryYear:     &year,
			ExpiryDate:     fmt.Sprintf("%02d/%02d", month, year%100),
			Type:           string(c.Type),
			Balance:        number(c.Balance),
		})
	}

	for _, t := range s.Transactions {
		id := t.ID
		category, kind, method := string(t.Category), string(t.Kind), string(t.PaymentMethod)
		date := t.Timestamp.UnixMilli()
		f.Transactions = append(f.Transactions, transactionJSON{
			ID:            &id,
			Title:         t.Title,
			Amount:        number(t.Amount),
			Category:      &category,
			Type:          &kind,
			PaymentMethod: &method,
			Date:          &date,
		})
	}

	return json.MarshalIndent(f, "", "  ")
}

// decoder accumulates warnings while converting fields.
type decoder struct {
	warnings []Warning
}

func (d *decoder) warn(field, value, used string) {
	d.warnings = append(d.warnings, Warning{Field: field, Value: value, Used: used})
}

func (d *decoder) amount(field string, n *json.Number) decimal.Decimal {
	if n == nil {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		d.warn(field, n.String(), "0")
		return decimal.Zero
	}
	return v
}

// Decode parses a backup file. now stands in for missing transaction dates.
// It fails only when the file is not JSON or is not a Meloch backup; every
// other problem is repaired and reported as a warning.
func Decode(data []byte, now time.Time) (Snapshot, []Warning, error) {
	var f fileJSON
	if err := json.Unmarshal(data, &f); err != nil {
		return Snapshot{}, nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	if f.Metadata == nil || f.Metadata.App != AppName {
		return Snapshot{}, nil, ErrInvalidBackup
	}
	if f.Financial == nil {
		return Snapshot{}, nil, fmt.Errorf("%w: missing financial section", ErrInvalidBackup)
	}

	d := &decoder{}
	s := Snapshot{
		ExportedAt:   time.UnixMilli(f.Metadata.Timestamp),
		Username:     f.User.Username,
		Email:        f.User.Email,
		TotalBalance: d.amount("financial.totalBalance", f.Financial.TotalBalance),
		PocketMoney:  d.amount("financial.pocketMoney", f.Financial.PocketMoney),
		BudgetLeft:   d.amount("financial.budgetLeft", f.Financial.BudgetLeft),
		TotalBudget:  d.amount("financial.totalBudget", f.Financial.TotalBudget),
	}

	if bc := f.Financial.BudgetCategories; bc != nil {
		s.CategoryBudgets = map[ledger.BudgetCategory]decimal.Decimal{
			ledger.BudgetEntertainment: d.amount("budgetCategories.entertainment", bc.Entertainment),
			ledger.BudgetFood:          d.amount("budgetCategories.food", bc.Food),
			ledger.BudgetTransport:     d.amount("budgetCategories.transport", bc.Transport),
			ledger.BudgetLifestyle:     d.amount("budgetCategories.lifestyle", bc.Lifestyle),
		}
	}

	for _, c := range f.Cards {
		s.Cards = append(s.Cards, d.card(c))
	}

	seen := make(map[string]bool, len(f.Transactions))
	for _, tj := range f.Transactions {
		t, ok := d.transaction(tj, now)
		if !ok {
			continue
		}
		if seen[t.ID] {
			d.warn("transactions.id", t.ID, "")
			continue
		}
		seen[t.ID] = true
		s.Transactions = append(s.Transactions, t)
	}

	return s, d.warnings, nil
}

func (d *decoder) card(c cardJSON) Card {
	out := Card{
		CardNumber:     c.CardNumber,
		CardholderName: c.CardholderName,
		BankName:       "BANK",
		ExpiryMonth:    1,
		ExpiryYear:     25,
		Type:           models.CardType(c.Type),
		Balance:        d.amount("cards.balance", c.Balance),
	}
	if c.ID != nil && *c.ID != "" {
		out.ID = *c.ID
	} else {
		out.ID = uuid.New()
		d.warn("cards.id", "", out.ID)
	}
	if c.BankName != nil {
		out.BankName = *c.BankName
	}
	if c.ExpiryMonth != nil {
		out.ExpiryMonth = *c.ExpiryMonth
	}
	if c.ExpiryYear != nil {
		out.ExpiryYear = *c.ExpiryYear
	}
	if out.Type != models.CardTypeCredit && out.Type != models.CardTypeDebit {
		d.warn("cards.type", c.Type, string(models.CardTypeDebit))
		out.Type = models.CardTypeDebit
	}
	return out
}

// transaction converts one entry. Entries without a positive amount cannot
// be recorded and are dropped.
func (d *decoder) transaction(tj transactionJSON, now time.Time) (ledger.Transaction, bool) {
	t := ledger.Transaction{
		Title:         tj.Title,
		Amount:        d.amount("transactions.amount", tj.Amount),
		Kind:          ledger.KindExpense,
		Category:      ledger.FallbackCategory,
		PaymentMethod: ledger.FallbackPaymentMethod,
		Timestamp:     now,
	}

	if tj.ID != nil && *tj.ID != "" {
		t.ID = *tj.ID
	} else {
		t.ID = uuid.New()
		d.warn("transactions.id", "", t.ID)
	}
	if !t.Amount.IsPositive() {
		d.warn("transactions.amount", t.Amount.String(), "")
		return ledger.Transaction{}, false
	}

	var ok bool
	if tj.Type != nil {
		if t.Kind, ok = ledger.KindOrDefault(*tj.Type); !ok {
			d.warn("transactions.type", *tj.Type, string(t.Kind))
		}
	}
	if tj.Category != nil {
		if t.Category, ok = ledger.CategoryOrDefault(*tj.Category); !ok {
			d.warn("transactions.category", *tj.Category, string(t.Category))
		}
	}
	if tj.PaymentMethod != nil {
		if t.PaymentMethod, ok = ledger.PaymentMethodOrDefault(*tj.PaymentMethod); !ok {
			d.warn("transactions.paymentMethod", *tj.PaymentMethod, string(t.PaymentMethod))
		}
	}
	if tj.Date != nil {
		t.Timestamp = time.UnixMilli(*tj.Date).UTC()
	}
	return t, true
}
