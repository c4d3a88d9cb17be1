package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"CoinSentinel/internal/model"
)

// FormatSnapshot renders the latest tick.
func FormatSnapshot(s model.Snapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(s.Symbol), s.Time.Format("2006-01-02 15:04:05")))
	if !s.HasPrice {
		b.WriteString("No price available yet.\n")
		b.WriteString(fmt.Sprintf("Signal: %s\n", html.EscapeString(s.Signal.Label)))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Price: €%s", s.Price.StringFixed(2)))
	if s.Stale {
		b.WriteString(" (stale)")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Day high/low: €%s / €%s\n", s.DailyHigh.StringFixed(2), s.DailyLow.StringFixed(2)))
	b.WriteString(fmt.Sprintf("All-time high: €%s\n", s.AllTimeHigh.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Range position: %.0f%%\n\n", s.RangePos*100))

	b.WriteString(fmt.Sprintf("RSI(14): %s\n", fmtIndicator(s.Indicators.RSI, 1)))
	b.WriteString(fmt.Sprintf("SMA20: %s | SMA50: %s\n\n", fmtIndicator(s.Indicators.SMA20, 2), fmtIndicator(s.Indicators.SMA50, 2)))

	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", signalIcon(s.Signal), html.EscapeString(strings.ToUpper(s.Signal.Label))))
	return b.String()
}

// FormatAlert renders a push notification for a new actionable signal.
func FormatAlert(s model.Snapshot, previous string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", signalIcon(s.Signal), html.EscapeString(strings.ToUpper(s.Signal.Label)), html.EscapeString(s.Symbol)))
	b.WriteString(fmt.Sprintf("Price: €%s\n", s.Price.StringFixed(2)))
	b.WriteString(fmt.Sprintf("RSI: %s | SMA20: %s | SMA50: %s\n",
		fmtIndicator(s.Indicators.RSI, 1), fmtIndicator(s.Indicators.SMA20, 2), fmtIndicator(s.Indicators.SMA50, 2)))
	if previous != "" {
		b.WriteString(fmt.Sprintf("Previous: %s\n", html.EscapeString(previous)))
	}
	return b.String()
}

// FormatSummary renders the wallet.
func FormatSummary(s model.Summary) string {
	var b strings.Builder
	b.WriteString("💼 <b>Wallet</b>\n\n")
	b.WriteString(fmt.Sprintf("Cash: €%s\n", s.CashBalance.StringFixed(2)))
	b.WriteString(fmt.Sprintf("BTC: %s (€%s)\n", s.Holdings.StringFixed(8), s.HoldingsValue.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Portfolio: €%s\n", s.PortfolioValue.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Deposited: €%s\n", s.TotalDeposited.StringFixed(2)))
	b.WriteString(fmt.Sprintf("P/L: €%s (%+.2f%%)\n", s.ProfitAndLoss.StringFixed(2), s.ProfitAndLossPct))
	return b.String()
}

// FormatHistory renders the newest transactions, at most limit of them.
func FormatHistory(txs []model.Transaction, limit int) string {
	if len(txs) == 0 {
		return "No transactions yet."
	}
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	var b strings.Builder
	b.WriteString("🧾 <b>Transactions</b>\n\n")
	for _, tx := range txs {
		b.WriteString(fmt.Sprintf("%s %-4s %s BTC @ €%s (€%s)\n",
			tx.Time.Local().Format("01-02 15:04"),
			strings.ToUpper(string(tx.Kind)),
			tx.AssetDelta.Abs().StringFixed(8),
			tx.Price.StringFixed(2),
			tx.CashDelta.Abs().StringFixed(2)))
	}
	return b.String()
}

// FormatDaily renders the end-of-day report.
func FormatDaily(s model.Snapshot, sum model.Summary, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily summary</b> | %s\n\n", now.Format("2006-01-02")))
	if s.HasPrice {
		b.WriteString(fmt.Sprintf("Close: €%s | High: €%s | Low: €%s\n",
			s.Price.StringFixed(2), s.DailyHigh.StringFixed(2), s.DailyLow.StringFixed(2)))
		b.WriteString(fmt.Sprintf("Signal: %s\n\n", html.EscapeString(s.Signal.Label)))
	}
	b.WriteString(FormatSummary(sum))
	return b.String()
}

// FormatHelp lists the chat commands. Placeholders are entity-escaped for
// HTML parse mode.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /price - current price and signal\n" +
		"• /wallet - balances and P/L\n" +
		"• /history - recent transactions\n" +
		"• /deposit &lt;eur&gt;\n" +
		"• /buy &lt;eur&gt;\n" +
		"• /sell &lt;btc&gt;"
}

func fmtIndicator(v float64, prec int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

func signalIcon(s model.Signal) string {
	switch s.Severity {
	case model.SeverityStrongPositive:
		return "🟢"
	case model.SeverityWeakPositive:
		return "🟩"
	case model.SeverityWeakNegative:
		return "🟥"
	case model.SeverityStrongNegative:
		return "🔴"
	default:
		return "⚪"
	}
}
