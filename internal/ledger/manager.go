// Package ledger is the simulated cash + asset account. It is the only
// writer of durable state.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"CoinSentinel/internal/model"
	"CoinSentinel/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Observer is notified after every ledger operation with its outcome.
type Observer func(op string, err error)

// Manager handles deposits, buys and sells with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    model.LedgerState
	store    store.Store
	observer Observer
	now      func() time.Time
}

// NewManager creates a Manager, initializing the store and loading the
// persisted balances.
func NewManager(ctx context.Context, st store.Store) (*Manager, error) {
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	state, err := st.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	log.Printf("[INFO] ledger loaded: cash=%s deposited=%s",
		state.CashBalance.StringFixed(2), state.TotalDeposited.StringFixed(2))
	return &Manager{state: state, store: st, now: time.Now}, nil
}

// SetObserver installs a hook called after each deposit, buy and sell.
func (m *Manager) SetObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = o
}

// State returns a copy of the current balances.
func (m *Manager) State() model.LedgerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Deposit adds cash to the account.
func (m *Manager) Deposit(ctx context.Context, amount decimal.Decimal) (model.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.deposit(ctx, amount)
	m.notify("deposit", err)
	return d, err
}

func (m *Manager) deposit(ctx context.Context, amount decimal.Decimal) (model.Deposit, error) {
	if !amount.IsPositive() {
		return model.Deposit{}, ErrInvalidAmount
	}

	d := model.Deposit{ID: uuid.NewString(), Time: m.now(), Amount: amount}
	next := model.LedgerState{
		CashBalance:    m.state.CashBalance.Add(amount),
		TotalDeposited: m.state.TotalDeposited.Add(amount),
	}
	if err := m.store.ApplyDeposit(ctx, d, next); err != nil {
		return model.Deposit{}, m.persistErr("deposit", err)
	}
	m.state = next

	log.Printf("[INFO] deposit %s EUR, cash=%s", amount.StringFixed(2), next.CashBalance.StringFixed(2))
	return d, nil
}

// Buy spends eurAmount of cash at price.
func (m *Manager) Buy(ctx context.Context, eurAmount, price decimal.Decimal) (model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.buy(ctx, eurAmount, price)
	m.notify("buy", err)
	return tx, err
}

func (m *Manager) buy(ctx context.Context, eurAmount, price decimal.Decimal) (model.Transaction, error) {
	if !eurAmount.IsPositive() {
		return model.Transaction{}, ErrInvalidAmount
	}
	if eurAmount.GreaterThan(m.state.CashBalance) {
		return model.Transaction{}, ErrInsufficientFunds
	}
	if !price.IsPositive() {
		return model.Transaction{}, ErrInvalidPrice
	}

	asset := eurAmount.DivRound(price, 16)
	tx := model.Transaction{
		ID:         uuid.NewString(),
		Time:       m.now(),
		Kind:       model.TxBuy,
		Price:      price,
		CashDelta:  eurAmount.Neg(),
		AssetDelta: asset,
	}
	next := model.LedgerState{
		CashBalance:    m.state.CashBalance.Sub(eurAmount),
		TotalDeposited: m.state.TotalDeposited,
	}
	if err := m.store.ApplyTransaction(ctx, tx, next); err != nil {
		return model.Transaction{}, m.persistErr("buy", err)
	}
	m.state = next

	log.Printf("[INFO] buy %s BTC for %s EUR at %s", asset.String(), eurAmount.StringFixed(2), price.StringFixed(2))
	return tx, nil
}

// Sell converts assetAmount back to cash at price.
func (m *Manager) Sell(ctx context.Context, assetAmount, price decimal.Decimal) (model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.sell(ctx, assetAmount, price)
	m.notify("sell", err)
	return tx, err
}

func (m *Manager) sell(ctx context.Context, assetAmount, price decimal.Decimal) (model.Transaction, error) {
	if !assetAmount.IsPositive() {
		return model.Transaction{}, ErrInvalidAmount
	}
	holdings, err := m.store.Holdings(ctx)
	if err != nil {
		return model.Transaction{}, m.persistErr("sell", err)
	}
	if assetAmount.GreaterThan(holdings) {
		return model.Transaction{}, ErrInsufficientHoldings
	}
	if !price.IsPositive() {
		return model.Transaction{}, ErrInvalidPrice
	}

	eur := assetAmount.Mul(price)
	tx := model.Transaction{
		ID:         uuid.NewString(),
		Time:       m.now(),
		Kind:       model.TxSell,
		Price:      price,
		CashDelta:  eur,
		AssetDelta: assetAmount.Neg(),
	}
	next := model.LedgerState{
		CashBalance:    m.state.CashBalance.Add(eur),
		TotalDeposited: m.state.TotalDeposited,
	}
	if err := m.store.ApplyTransaction(ctx, tx, next); err != nil {
		return model.Transaction{}, m.persistErr("sell", err)
	}
	m.state = next

	log.Printf("[INFO] sell %s BTC for %s EUR at %s", assetAmount.String(), eur.StringFixed(2), price.StringFixed(2))
	return tx, nil
}

// Holdings is the sum of asset deltas over the journal.
func (m *Manager) Holdings(ctx context.Context) (decimal.Decimal, error) {
	h, err := m.store.Holdings(ctx)
	if err != nil {
		return decimal.Zero, &PersistenceError{Op: "holdings", Err: err}
	}
	return h, nil
}

// Summary values the account at price.
func (m *Manager) Summary(ctx context.Context, price decimal.Decimal) (model.Summary, error) {
	state := m.State()
	holdings, err := m.Holdings(ctx)
	if err != nil {
		return model.Summary{}, err
	}

	value := holdings.Mul(price)
	portfolio := value.Add(state.CashBalance)
	pnl := portfolio.Sub(state.TotalDeposited)
	var pct float64
	if state.TotalDeposited.IsPositive() {
		pct = pnl.Div(state.TotalDeposited).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return model.Summary{
		Price:            price,
		CashBalance:      state.CashBalance,
		TotalDeposited:   state.TotalDeposited,
		Holdings:         holdings,
		HoldingsValue:    value,
		PortfolioValue:   portfolio,
		ProfitAndLoss:    pnl,
		ProfitAndLossPct: pct,
	}, nil
}

// Transactions returns the buy/sell journal, newest first.
func (m *Manager) Transactions(ctx context.Context) ([]model.Transaction, error) {
	txs, err := m.store.Transactions(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "transactions", Err: err}
	}
	return txs, nil
}

// Deposits returns the deposit journal, newest first.
func (m *Manager) Deposits(ctx context.Context) ([]model.Deposit, error) {
	deps, err := m.store.Deposits(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "deposits", Err: err}
	}
	return deps, nil
}

// AllTimeHigh returns the persisted watermark.
func (m *Manager) AllTimeHigh(ctx context.Context) (decimal.Decimal, error) {
	v, err := m.store.AllTimeHigh(ctx)
	if err != nil {
		return decimal.Zero, &PersistenceError{Op: "all-time high", Err: err}
	}
	return v, nil
}

// RecordAllTimeHigh persists v if it exceeds the stored watermark. It
// reports whether a write happened.
func (m *Manager) RecordAllTimeHigh(ctx context.Context, v decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.store.AllTimeHigh(ctx)
	if err != nil {
		return false, &PersistenceError{Op: "all-time high", Err: err}
	}
	if !v.GreaterThan(cur) {
		return false, nil
	}
	if err := m.store.SetAllTimeHigh(ctx, v); err != nil {
		return false, &PersistenceError{Op: "all-time high", Err: err}
	}
	return true, nil
}

// Close releases the store.
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) persistErr(op string, err error) error {
	log.Printf("[ERROR] ledger %s failed to persist: %v", op, err)
	return &PersistenceError{Op: op, Err: err}
}

func (m *Manager) notify(op string, err error) {
	if m.observer != nil {
		m.observer(op, err)
	}
}

// Describe turns a ledger error into a short user-facing message.
func Describe(err error) string {
	var pe *PersistenceError
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return "amount must be greater than zero"
	case errors.Is(err, ErrInvalidPrice):
		return "no valid price available"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient EUR balance"
	case errors.Is(err, ErrInsufficientHoldings):
		return "insufficient BTC holdings"
	case errors.As(err, &pe):
		return "could not save, please check the ledger"
	default:
		return err.Error()
	}
}
