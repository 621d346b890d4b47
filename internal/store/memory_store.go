package store

import (
	"context"
	"sync"

	"meloch/internal/ledger"
)

// MemoryStore is a LedgerStore backed by a map. States are deep copied on
// the way in and out.
type MemoryStore struct {
	mu            sync.RWMutex
	states        map[uint]ledger.State
	defaultBudget ledger.Money
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(defaultBudget ledger.Money) *MemoryStore {
	return &MemoryStore{
		states:        make(map[uint]ledger.State),
		defaultBudget: defaultBudget,
	}
}

func (m *MemoryStore) Load(ctx context.Context, userID uint) (ledger.State, error) {
	if err := ctx.Err(); err != nil {
		return ledger.State{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[userID]
	if !ok {
		return ledger.NewStateWithBudget(m.defaultBudget), nil
	}
	return st.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, userID uint, st ledger.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[userID] = st.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, userID)
	return nil
}
