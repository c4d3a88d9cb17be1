// Package api serves the snapshot, series and ledger over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"CoinSentinel/internal/ledger"
	"CoinSentinel/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Monitor is the read side of the tick loop.
type Monitor interface {
	Snapshot() model.Snapshot
	Tail(n int) []model.SeriesRow
	Capacity() int
}

// Ledger is the account the trade endpoints drive.
type Ledger interface {
	Deposit(ctx context.Context, amount decimal.Decimal) (model.Deposit, error)
	Buy(ctx context.Context, eurAmount, price decimal.Decimal) (model.Transaction, error)
	Sell(ctx context.Context, assetAmount, price decimal.Decimal) (model.Transaction, error)
	Summary(ctx context.Context, price decimal.Decimal) (model.Summary, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
	Deposits(ctx context.Context) ([]model.Deposit, error)
}

// DefaultSeriesLimit is the number of rows /series returns without ?limit.
const DefaultSeriesLimit = 20

type Handler struct {
	Monitor Monitor
	Ledger  Ledger
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) Health(c *gin.Context) {
	s := h.Monitor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    "coin-sentinel",
		"has_price":  s.HasPrice,
		"stale":      s.Stale,
		"series_len": s.SeriesLen,
	})
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.Monitor.Snapshot())
}

func (h *Handler) GetSeries(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultSeriesLimit)))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if capacity := h.Monitor.Capacity(); limit > capacity {
		limit = capacity
	}
	rows := h.Monitor.Tail(limit)
	if rows == nil {
		rows = []model.SeriesRow{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) GetSummary(c *gin.Context) {
	sum, err := h.Ledger.Summary(c.Request.Context(), h.Monitor.Snapshot().Price)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) GetTransactions(c *gin.Context) {
	txs, err := h.Ledger.Transactions(c.Request.Context())
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) GetDeposits(c *gin.Context) {
	deps, err := h.Ledger.Deposits(c.Request.Context())
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	if deps == nil {
		deps = []model.Deposit{}
	}
	c.JSON(http.StatusOK, deps)
}

func (h *Handler) PostDeposit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	d, err := h.Ledger.Deposit(c.Request.Context(), req.Amount)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) PostBuy(c *gin.Context) {
	h.trade(c, h.Ledger.Buy)
}

func (h *Handler) PostSell(c *gin.Context) {
	h.trade(c, h.Ledger.Sell)
}

func (h *Handler) trade(c *gin.Context, op func(context.Context, decimal.Decimal, decimal.Decimal) (model.Transaction, error)) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	snap := h.Monitor.Snapshot()
	if !snap.HasPrice {
		c.JSON(http.StatusConflict, gin.H{"error": "no price available yet"})
		return
	}
	tx, err := op(c.Request.Context(), req.Amount, snap.Price)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func writeLedgerError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case ledger.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrInsufficientHoldings):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
