package events

import (
	"context"
	"sync"
	"time"

	"meloch/internal/ledger"
	"meloch/internal/logger"
	"meloch/internal/notification"
)

// Dispatcher turns notification intents into events. An intent identical to
// the last one published for a user is suppressed, and moving back to no
// warning publishes budget.cleared once.
type Dispatcher struct {
	pub Publisher
	now func() time.Time

	mu   sync.Mutex
	last map[uint]notification.Intent
}

// NewDispatcher creates a Dispatcher publishing through pub.
func NewDispatcher(pub Publisher) *Dispatcher {
	return &Dispatcher{
		pub:  pub,
		now:  time.Now,
		last: make(map[uint]notification.Intent),
	}
}

// Notify publishes intent for userID unless it repeats the previous one.
// It reports whether an event was published. Delivery failures are logged
// and never surface to the caller. The broker call runs without d.mu held,
// so a slow publish for one user does not hold up the others.
func (d *Dispatcher) Notify(ctx context.Context, userID uint, intent notification.Intent) bool {
	if !d.shouldPublish(userID, intent) {
		return false
	}

	remaining := intent.Remaining
	e := Event{
		Type:       eventType(intent.Kind),
		UserID:     userID,
		Remaining:  &remaining,
		OccurredAt: d.now(),
	}
	if err := d.pub.Publish(ctx, e); err != nil {
		logger.Get().Errorw("failed to publish budget notification",
			"error", err,
			"user_id", userID,
			"type", e.Type,
		)
		return false
	}

	d.mu.Lock()
	d.last[userID] = intent
	d.mu.Unlock()
	return true
}

// shouldPublish decides under d.mu whether intent differs from the last one
// published. A None intent with nothing to clear is remembered right away.
func (d *Dispatcher) shouldPublish(userID uint, intent notification.Intent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, seen := d.last[userID]
	if seen && prev.Equal(intent) {
		return false
	}
	if intent.None() && (!seen || prev.None()) {
		d.last[userID] = intent
		return false
	}
	return true
}

// BudgetReset publishes a budget.reset event with the new budget.
func (d *Dispatcher) BudgetReset(ctx context.Context, userID uint, budget ledger.Money) {
	e := Event{Type: TypeBudgetReset, UserID: userID, Budget: &budget, OccurredAt: d.now()}
	if err := d.pub.Publish(ctx, e); err != nil {
		logger.Get().Errorw("failed to publish budget reset", "error", err, "user_id", userID)
	}
}

// Forget drops the remembered intent of a user, e.g. on account deletion.
func (d *Dispatcher) Forget(userID uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.last, userID)
}

func eventType(k notification.Kind) string {
	switch k {
	case notification.KindLowBudget:
		return TypeBudgetLow
	case notification.KindZeroOrNegativeBudget:
		return TypeBudgetExhausted
	default:
		return TypeBudgetCleared
	}
}
