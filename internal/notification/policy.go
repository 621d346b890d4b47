// Package notification decides when a user should be warned about their
// remaining budget.
package notification

import (
	"time"

	"github.com/shopspring/decimal"

	"meloch/internal/ledger"
)

// DefaultLowThreshold is the remaining amount below which a low budget
// warning is raised.
var DefaultLowThreshold = decimal.NewFromInt(5000)

// Kind identifies the notification to show.
type Kind string

// Notification kinds.
const (
	KindNone                 Kind = "NONE"
	KindLowBudget            Kind = "LOW_BUDGET"
	KindZeroOrNegativeBudget Kind = "ZERO_OR_NEGATIVE_BUDGET"
)

// Intent is the outcome of evaluating the policy.
type Intent struct {
	Kind      Kind         `json:"kind"`
	Remaining ledger.Money `json:"remaining"`
}

// None reports whether nothing should be shown.
func (i Intent) None() bool { return i.Kind == KindNone }

// Equal compares two intents by kind and amount.
func (i Intent) Equal(o Intent) bool {
	return i.Kind == o.Kind && i.Remaining.Equal(o.Remaining)
}

// Policy evaluates budget warnings against a threshold.
type Policy struct {
	Threshold ledger.Money
}

// NewPolicy returns a policy with the given threshold, or the default when
// threshold is not positive.
func NewPolicy(threshold ledger.Money) Policy {
	if !threshold.IsPositive() {
		threshold = DefaultLowThreshold
	}
	return Policy{Threshold: threshold}
}

// Evaluate maps a remaining amount to an intent. Without transactions in the
// period there is nothing to warn about.
func (p Policy) Evaluate(remaining ledger.Money, hasTransactions bool) Intent {
	switch {
	case !hasTransactions:
		return Intent{Kind: KindNone, Remaining: remaining}
	case !remaining.IsPositive():
		return Intent{Kind: KindZeroOrNegativeBudget, Remaining: remaining}
	case remaining.LessThan(p.Threshold):
		return Intent{Kind: KindLowBudget, Remaining: remaining}
	default:
		return Intent{Kind: KindNone, Remaining: remaining}
	}
}

// ForState evaluates the policy for the effective remaining budget of s.
func (p Policy) ForState(s ledger.State, now time.Time) Intent {
	return p.Evaluate(ledger.EffectiveBudgetRemaining(s, now), ledger.HasTransactionsThisPeriod(s, now))
}

// Evaluate applies the default policy.
func Evaluate(remaining ledger.Money, hasTransactions bool) Intent {
	return NewPolicy(DefaultLowThreshold).Evaluate(remaining, hasTransactions)
}
