package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxKind is the direction of a ledger transaction.
type TxKind string

const (
	TxBuy  TxKind = "buy"
	TxSell TxKind = "sell"
)

// Transaction is an immutable journal entry for a buy or a sell.
type Transaction struct {
	ID         string          `json:"id"`
	Time       time.Time       `json:"time"`
	Kind       TxKind          `json:"kind"`
	Price      decimal.Decimal `json:"price"`
	CashDelta  decimal.Decimal `json:"cash_delta"`  // negative for buys
	AssetDelta decimal.Decimal `json:"asset_delta"` // negative for sells
}

// Deposit is an immutable journal entry for added cash.
type Deposit struct {
	ID     string          `json:"id"`
	Time   time.Time       `json:"time"`
	Amount decimal.Decimal `json:"amount"`
}

// LedgerState is the durable cash position.
type LedgerState struct {
	CashBalance    decimal.Decimal `json:"cash_balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
}

// Summary is the derived portfolio view at a given price.
type Summary struct {
	Price            decimal.Decimal `json:"price"`
	CashBalance      decimal.Decimal `json:"cash_balance"`
	TotalDeposited   decimal.Decimal `json:"total_deposited"`
	Holdings         decimal.Decimal `json:"holdings"`
	HoldingsValue    decimal.Decimal `json:"holdings_value"`
	PortfolioValue   decimal.Decimal `json:"portfolio_value"`
	ProfitAndLoss    decimal.Decimal `json:"profit_and_loss"`
	ProfitAndLossPct float64         `json:"profit_and_loss_pct"`
}
