package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"CoinSentinel/internal/model"
	"CoinSentinel/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newMemoryManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), store.NewMemoryStore())
	require.NoError(t, err)
	return m
}

// failingStore accepts reads and rejects every write.
type failingStore struct {
	*store.MemoryStore
}

var errDiskFull = errors.New("disk full")

func (f failingStore) ApplyDeposit(context.Context, model.Deposit, model.LedgerState) error {
	return errDiskFull
}

func (f failingStore) ApplyTransaction(context.Context, model.Transaction, model.LedgerState) error {
	return errDiskFull
}

func (f failingStore) SetAllTimeHigh(context.Context, decimal.Decimal) error {
	return errDiskFull
}

func TestDepositBuySellRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)

	_, err := m.Deposit(ctx, d("100"))
	require.NoError(t, err)

	tx, err := m.Buy(ctx, d("50"), d("20000"))
	require.NoError(t, err)
	assert.Equal(t, model.TxBuy, tx.Kind)
	assert.True(t, tx.CashDelta.Equal(d("-50")))
	assert.True(t, tx.AssetDelta.Equal(d("0.0025")))

	st := m.State()
	assert.True(t, st.CashBalance.Equal(d("50")))
	assert.True(t, st.TotalDeposited.Equal(d("100")))

	h, err := m.Holdings(ctx)
	require.NoError(t, err)
	assert.True(t, h.Equal(d("0.0025")), "holdings %s", h)

	tx, err = m.Sell(ctx, d("0.0025"), d("20000"))
	require.NoError(t, err)
	assert.Equal(t, model.TxSell, tx.Kind)
	assert.True(t, tx.CashDelta.Equal(d("50")))

	st = m.State()
	assert.True(t, st.CashBalance.Equal(d("100")))
	assert.True(t, st.TotalDeposited.Equal(d("100")))

	h, err = m.Holdings(ctx)
	require.NoError(t, err)
	assert.True(t, h.IsZero())

	txs, err := m.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, model.TxSell, txs[0].Kind)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	_, err := m.Deposit(ctx, d("100"))
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"zero deposit", func() error { _, err := m.Deposit(ctx, decimal.Zero); return err }, ErrInvalidAmount},
		{"negative deposit", func() error { _, err := m.Deposit(ctx, d("-1")); return err }, ErrInvalidAmount},
		{"zero buy", func() error { _, err := m.Buy(ctx, decimal.Zero, d("20000")); return err }, ErrInvalidAmount},
		{"buy over balance", func() error { _, err := m.Buy(ctx, d("101"), d("20000")); return err }, ErrInsufficientFunds},
		{"buy at zero price", func() error { _, err := m.Buy(ctx, d("10"), decimal.Zero); return err }, ErrInvalidPrice},
		{"zero sell", func() error { _, err := m.Sell(ctx, decimal.Zero, d("20000")); return err }, ErrInvalidAmount},
		{"sell without holdings", func() error { _, err := m.Sell(ctx, d("0.1"), d("20000")); return err }, ErrInsufficientHoldings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, tt.want)
			st := m.State()
			assert.True(t, st.CashBalance.Equal(d("100")))
			assert.True(t, st.TotalDeposited.Equal(d("100")))
		})
	}

	txs, err := m.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestSellAtZeroPriceWithHoldings(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	_, err := m.Deposit(ctx, d("100"))
	require.NoError(t, err)
	_, err = m.Buy(ctx, d("100"), d("25000"))
	require.NoError(t, err)

	_, err = m.Sell(ctx, d("0.001"), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.True(t, m.State().CashBalance.IsZero())
}

func TestPersistenceFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	good, err := NewManager(ctx, mem)
	require.NoError(t, err)
	_, err = good.Deposit(ctx, d("100"))
	require.NoError(t, err)

	m, err := NewManager(ctx, failingStore{mem})
	require.NoError(t, err)

	_, err = m.Deposit(ctx, d("10"))
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "deposit", pe.Op)
	assert.ErrorIs(t, err, errDiskFull)

	_, err = m.Buy(ctx, d("10"), d("20000"))
	require.ErrorAs(t, err, &pe)

	st := m.State()
	assert.True(t, st.CashBalance.Equal(d("100")))
	assert.True(t, st.TotalDeposited.Equal(d("100")))

	h, err := m.Holdings(ctx)
	require.NoError(t, err)
	assert.True(t, h.IsZero())
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)

	s, err := m.Summary(ctx, d("30000"))
	require.NoError(t, err)
	assert.True(t, s.PortfolioValue.IsZero())
	assert.Zero(t, s.ProfitAndLossPct)

	_, err = m.Deposit(ctx, d("100"))
	require.NoError(t, err)
	_, err = m.Buy(ctx, d("50"), d("20000"))
	require.NoError(t, err)

	s, err = m.Summary(ctx, d("30000"))
	require.NoError(t, err)
	assert.True(t, s.HoldingsValue.Equal(d("75")))
	assert.True(t, s.PortfolioValue.Equal(d("125")))
	assert.True(t, s.ProfitAndLoss.Equal(d("25")))
	assert.InDelta(t, 25.0, s.ProfitAndLossPct, 1e-9)
}

func TestRecordAllTimeHighIsMonotonic(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)

	wrote, err := m.RecordAllTimeHigh(ctx, d("100"))
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = m.RecordAllTimeHigh(ctx, d("90"))
	require.NoError(t, err)
	assert.False(t, wrote)

	wrote, err = m.RecordAllTimeHigh(ctx, d("100"))
	require.NoError(t, err)
	assert.False(t, wrote)

	v, err := m.AllTimeHigh(ctx)
	require.NoError(t, err)
	assert.True(t, v.Equal(d("100")))
}

func TestLedgerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	st, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	m, err := NewManager(ctx, st)
	require.NoError(t, err)
	_, err = m.Deposit(ctx, d("100"))
	require.NoError(t, err)
	_, err = m.Buy(ctx, d("50"), d("20000"))
	require.NoError(t, err)
	require.NoError(t, m.Close())

	st, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	m, err = NewManager(ctx, st)
	require.NoError(t, err)
	defer m.Close()

	state := m.State()
	assert.True(t, state.CashBalance.Equal(d("50")))
	assert.True(t, state.TotalDeposited.Equal(d("100")))
	h, err := m.Holdings(ctx)
	require.NoError(t, err)
	assert.True(t, h.Equal(d("0.0025")))
}

func TestConcurrentDepositsAreSerialized(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	m, err := NewManager(ctx, st)
	require.NoError(t, err)
	defer m.Close()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := m.Deposit(ctx, d("1"))
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			_, err := m.RecordAllTimeHigh(ctx, decimal.NewFromInt(int64(100+i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	mem := m.State()
	assert.True(t, mem.CashBalance.Equal(d("50")), "cash in memory: %s", mem.CashBalance)
	assert.True(t, mem.TotalDeposited.Equal(d("50")))

	disk, err := st.LoadState(ctx)
	require.NoError(t, err)
	assert.True(t, disk.CashBalance.Equal(d("50")), "cash on disk: %s", disk.CashBalance)
	assert.True(t, disk.TotalDeposited.Equal(d("50")))

	deps, err := m.Deposits(ctx)
	require.NoError(t, err)
	assert.Len(t, deps, n)

	ath, err := m.AllTimeHigh(ctx)
	require.NoError(t, err)
	assert.True(t, ath.Equal(decimal.NewFromInt(149)))
}

func TestObserverSeesOutcome(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)

	var ops []string
	m.SetObserver(func(op string, err error) {
		if err != nil {
			op += ":err"
		}
		ops = append(ops, op)
	})
	_, _ = m.Deposit(ctx, d("10"))
	_, _ = m.Buy(ctx, d("20"), d("20000"))
	assert.Equal(t, []string{"deposit", "buy:err"}, ops)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "insufficient EUR balance", Describe(ErrInsufficientFunds))
	assert.Equal(t, "could not save, please check the ledger",
		Describe(&PersistenceError{Op: "buy", Err: errDiskFull}))
}
