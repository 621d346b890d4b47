package ledger

import (
	"fmt"
	"strings"
)

// EncodingVersion is the version of the string encoding used for enums and
// persisted ledger documents.
const EncodingVersion = 1

// Kind is the direction of a transaction.
type Kind string

// Transaction kinds.
const (
	KindIncome  Kind = "INCOME"
	KindExpense Kind = "EXPENSE"
)

// Category classifies a transaction.
type Category string

// Transaction categories.
const (
	CategoryFood          Category = "FOOD"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryTransport     Category = "TRANSPORT"
	CategoryHealth        Category = "HEALTH"
	CategoryShopping      Category = "SHOPPING"
	CategorySalary        Category = "SALARY"
	CategorySideBusiness  Category = "SIDE_BUSINESS"
	CategoryVacation      Category = "VACATION"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryEntertainment,
	CategoryTransport,
	CategoryHealth,
	CategoryShopping,
	CategorySalary,
	CategorySideBusiness,
	CategoryVacation,
}

var categoryNames = map[Category]string{
	CategoryFood:          "Food",
	CategoryEntertainment: "Entertainment",
	CategoryTransport:     "Transport",
	CategoryHealth:        "Health",
	CategoryShopping:      "Shopping",
	CategorySalary:        "Salary",
	CategorySideBusiness:  "Side Business",
	CategoryVacation:      "Vacation",
}

// PaymentMethod records how a transaction was paid.
type PaymentMethod string

// Payment methods.
const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
)

// BudgetCategory is one of the four spending envelopes a user can budget.
type BudgetCategory string

// Budget categories.
const (
	BudgetEntertainment BudgetCategory = "ENTERTAINMENT"
	BudgetFood          BudgetCategory = "FOOD"
	BudgetTransport     BudgetCategory = "TRANSPORT"
	BudgetLifestyle     BudgetCategory = "LIFESTYLE"
)

// BudgetCategories lists the budget envelopes in display order.
var BudgetCategories = []BudgetCategory{
	BudgetEntertainment,
	BudgetFood,
	BudgetTransport,
	BudgetLifestyle,
}

// Fallbacks applied by the lenient decoders.
const (
	FallbackCategory      = CategoryEntertainment
	FallbackKind          = KindExpense
	FallbackPaymentMethod = PaymentCash
)

// normalize folds a user supplied enum string into the canonical code form:
// upper case with spaces and dashes turned into underscores.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (k Kind) String() string { return string(k) }

// ParseKind parses a kind code, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(normalize(s))
	if !k.Valid() {
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
	return k, nil
}

// KindOrDefault parses s and falls back to EXPENSE on unknown input.
// The boolean is false when the fallback was used.
func KindOrDefault(s string) (Kind, bool) {
	k, err := ParseKind(s)
	if err != nil {
		return FallbackKind, false
	}
	return k, true
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string { return string(c) }

// DisplayName returns the human readable category name.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// IsIncomeSource reports whether the category is an income stream that the
// dashboard spending breakdown leaves out.
func (c Category) IsIncomeSource() bool {
	return c == CategorySalary || c == CategorySideBusiness
}

// ParseCategory parses a category code or display name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(normalize(s))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// CategoryOrDefault parses s and falls back to ENTERTAINMENT on unknown input.
func CategoryOrDefault(s string) (Category, bool) {
	c, err := ParseCategory(s)
	if err != nil {
		return FallbackCategory, false
	}
	return c, true
}

// Valid reports whether p is a known payment method.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard:
		return true
	}
	return false
}

func (p PaymentMethod) String() string { return string(p) }

// ParsePaymentMethod parses a payment method code or display name.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	p := PaymentMethod(normalize(s))
	if !p.Valid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return p, nil
}

// PaymentMethodOrDefault parses s and falls back to CASH on unknown input.
func PaymentMethodOrDefault(s string) (PaymentMethod, bool) {
	p, err := ParsePaymentMethod(s)
	if err != nil {
		return FallbackPaymentMethod, false
	}
	return p, true
}

// Valid reports whether b is a known budget category.
func (b BudgetCategory) Valid() bool {
	switch b {
	case BudgetEntertainment, BudgetFood, BudgetTransport, BudgetLifestyle:
		return true
	}
	return false
}

func (b BudgetCategory) String() string { return string(b) }

// ParseBudgetCategory parses a budget category, case-insensitively.
func ParseBudgetCategory(s string) (BudgetCategory, error) {
	b := BudgetCategory(normalize(s))
	if !b.Valid() {
		return "", fmt.Errorf("unknown budget category %q", s)
	}
	return b, nil
}

// SpendCategory returns the transaction category whose spend is measured
// against this budget envelope. Lifestyle is tracked against shopping.
func (b BudgetCategory) SpendCategory() Category {
	switch b {
	case BudgetEntertainment:
		return CategoryEntertainment
	case BudgetFood:
		return CategoryFood
	case BudgetTransport:
		return CategoryTransport
	default:
		return CategoryShopping
	}
}
