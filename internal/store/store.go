// Package store persists the ledger: app state scalars plus the append-only
// transaction and deposit journals.
package store

import (
	"context"
	"time"

	"CoinSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// App state keys.
const (
	KeyAllTimeHigh    = "all_time_high"
	KeyCashBalance    = "eur_balance"
	KeyTotalDeposited = "total_eur_deposited"
)

// StateKeys lists the keys created on first run.
var StateKeys = []string{KeyAllTimeHigh, KeyCashBalance, KeyTotalDeposited}

// timeLayout is fixed-width so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// legacyTimeLayout is the layout used by older databases.
const legacyTimeLayout = "2006-01-02 15:04:05"

// Store is the durable backing of the ledger. Apply* calls must commit the
// new state and the journal entry together or not at all.
type Store interface {
	Init(ctx context.Context) error
	LoadState(ctx context.Context) (model.LedgerState, error)
	AllTimeHigh(ctx context.Context) (decimal.Decimal, error)
	SetAllTimeHigh(ctx context.Context, v decimal.Decimal) error
	ApplyDeposit(ctx context.Context, d model.Deposit, next model.LedgerState) error
	ApplyTransaction(ctx context.Context, tx model.Transaction, next model.LedgerState) error
	Holdings(ctx context.Context) (decimal.Decimal, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
	Deposits(ctx context.Context) ([]model.Deposit, error)
	Close() error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	if lt, lerr := time.ParseInLocation(legacyTimeLayout, s, time.Local); lerr == nil {
		return lt, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
