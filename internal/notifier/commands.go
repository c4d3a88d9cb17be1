package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"CoinSentinel/internal/ledger"
	"CoinSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// SnapshotSource returns the latest tick.
type SnapshotSource interface {
	Snapshot() model.Snapshot
}

// Wallet is the part of the ledger the bot drives.
type Wallet interface {
	Deposit(ctx context.Context, amount decimal.Decimal) (model.Deposit, error)
	Buy(ctx context.Context, eurAmount, price decimal.Decimal) (model.Transaction, error)
	Sell(ctx context.Context, assetAmount, price decimal.Decimal) (model.Transaction, error)
	Summary(ctx context.Context, price decimal.Decimal) (model.Summary, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
}

// historyLimit caps /history replies.
const historyLimit = 10

// Commands answers chat commands against the monitor and the ledger.
type Commands struct {
	Snapshots SnapshotSource
	Wallet    Wallet
}

// Handle processes a user command and returns a reply.
func (c *Commands) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return FormatHelp()
	}
	// Strip a bot mention: /price@CoinSentinelBot
	cmd := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch cmd {
	case "/price":
		return FormatSnapshot(c.Snapshots.Snapshot())
	case "/wallet":
		sum, err := c.Wallet.Summary(ctx, c.Snapshots.Snapshot().Price)
		if err != nil {
			return errorReply(ledger.Describe(err))
		}
		return FormatSummary(sum)
	case "/history":
		txs, err := c.Wallet.Transactions(ctx)
		if err != nil {
			return errorReply(ledger.Describe(err))
		}
		return FormatHistory(txs, historyLimit)
	case "/deposit":
		amount, err := parseAmount(args)
		if err != nil {
			return errorReply(err.Error())
		}
		if _, err := c.Wallet.Deposit(ctx, amount); err != nil {
			return errorReply(ledger.Describe(err))
		}
		return fmt.Sprintf("✅ Deposited €%s", amount.StringFixed(2))
	case "/buy", "/sell":
		amount, err := parseAmount(args)
		if err != nil {
			return errorReply(err.Error())
		}
		snap := c.Snapshots.Snapshot()
		if !snap.HasPrice {
			return "❌ no price available yet"
		}
		return c.trade(ctx, cmd, amount, snap.Price)
	default:
		return FormatHelp()
	}
}

func (c *Commands) trade(ctx context.Context, cmd string, amount, price decimal.Decimal) string {
	if cmd == "/buy" {
		tx, err := c.Wallet.Buy(ctx, amount, price)
		if err != nil {
			return errorReply(ledger.Describe(err))
		}
		return fmt.Sprintf("✅ Bought %s BTC for €%s at €%s",
			tx.AssetDelta.StringFixed(8), amount.StringFixed(2), price.StringFixed(2))
	}
	tx, err := c.Wallet.Sell(ctx, amount, price)
	if err != nil {
		return errorReply(ledger.Describe(err))
	}
	return fmt.Sprintf("✅ Sold %s BTC for €%s at €%s",
		amount.String(), tx.CashDelta.StringFixed(2), price.StringFixed(2))
}

// errorReply escapes msg for HTML parse mode; it may echo user input.
func errorReply(msg string) string {
	return "❌ " + html.EscapeString(msg)
}

func parseAmount(args []string) (decimal.Decimal, error) {
	if len(args) != 1 {
		return decimal.Zero, errors.New("usage: <command> <amount>")
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(args[0], ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", args[0])
	}
	return v, nil
}
