package store

import (
	"context"
	"sync"

	"CoinSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps everything in process memory. Used when no database is
// configured and in tests.
type MemoryStore struct {
	mu           sync.Mutex
	state        map[string]decimal.Decimal
	transactions []model.Transaction
	deposits     []model.Deposit
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: make(map[string]decimal.Decimal)}
}

func (m *MemoryStore) Init(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range StateKeys {
		if _, ok := m.state[k]; !ok {
			m.state[k] = decimal.Zero
		}
	}
	return nil
}

func (m *MemoryStore) LoadState(_ context.Context) (model.LedgerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.LedgerState{
		CashBalance:    m.state[KeyCashBalance],
		TotalDeposited: m.state[KeyTotalDeposited],
	}, nil
}

func (m *MemoryStore) AllTimeHigh(_ context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[KeyAllTimeHigh], nil
}

func (m *MemoryStore) SetAllTimeHigh(_ context.Context, v decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[KeyAllTimeHigh] = v
	return nil
}

func (m *MemoryStore) ApplyDeposit(_ context.Context, d model.Deposit, next model.LedgerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deposits = append(m.deposits, d)
	m.state[KeyCashBalance] = next.CashBalance
	m.state[KeyTotalDeposited] = next.TotalDeposited
	return nil
}

func (m *MemoryStore) ApplyTransaction(_ context.Context, tx model.Transaction, next model.LedgerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, tx)
	m.state[KeyCashBalance] = next.CashBalance
	m.state[KeyTotalDeposited] = next.TotalDeposited
	return nil
}

func (m *MemoryStore) Holdings(_ context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, tx := range m.transactions {
		total = total.Add(tx.AssetDelta)
	}
	return total, nil
}

func (m *MemoryStore) Transactions(_ context.Context) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Transaction, len(m.transactions))
	for i, tx := range m.transactions {
		out[len(out)-1-i] = tx
	}
	return out, nil
}

func (m *MemoryStore) Deposits(_ context.Context) ([]model.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Deposit, len(m.deposits))
	for i, d := range m.deposits {
		out[len(out)-1-i] = d
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
