package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"CoinSentinel/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists the ledger to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: the ledger is the only writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

// Init creates the schema and the app state rows if missing. It is
// idempotent.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			timestamp      TEXT NOT NULL,
			type           TEXT NOT NULL,
			price          TEXT NOT NULL,
			eur_amount     TEXT NOT NULL,
			btc_amount     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_ts ON transactions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS deposits (
			deposit_id    TEXT PRIMARY KEY,
			timestamp     TEXT NOT NULL,
			eur_deposited TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_ts ON deposits(timestamp)`,

		`CREATE TABLE IF NOT EXISTS app_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for i, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("init schema (stmt %d): %w", i, err)
		}
	}
	for _, k := range StateKeys {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO app_state (key, value) VALUES (?, ?)`, k, "0"); err != nil {
			return fmt.Errorf("init app_state %s: %w", k, err)
		}
	}
	if err := s.normalizeTimestamps(ctx); err != nil {
		return err
	}
	return s.migratePurchases(ctx)
}

// normalizeTimestamps rewrites journal rows stored in the local
// "YYYY-MM-DD HH:MM:SS" layout into the UTC layout, so ORDER BY timestamp
// stays chronological across both.
func (s *SQLiteStore) normalizeTimestamps(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timestamp normalization: %w", err)
	}
	defer tx.Rollback()

	type stamp struct {
		rowid int64
		ts    string
	}
	fixed := 0
	for _, table := range []string{"transactions", "deposits"} {
		rows, err := tx.QueryContext(ctx, `SELECT rowid, timestamp FROM `+table+` WHERE timestamp NOT LIKE '%Z'`)
		if err != nil {
			return fmt.Errorf("scan %s timestamps: %w", table, err)
		}
		var stale []stamp
		for rows.Next() {
			var st stamp
			if err := rows.Scan(&st.rowid, &st.ts); err != nil {
				rows.Close()
				return fmt.Errorf("scan %s timestamp: %w", table, err)
			}
			stale = append(stale, st)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("scan %s timestamps: %w", table, err)
		}

		for _, st := range stale {
			t, err := parseTime(st.ts)
			if err != nil {
				log.Printf("[WARN] %s row %d: unreadable timestamp %q left as is", table, st.rowid, st.ts)
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE `+table+` SET timestamp = ? WHERE rowid = ?`, formatTime(t), st.rowid); err != nil {
				return fmt.Errorf("rewrite %s timestamp: %w", table, err)
			}
			fixed++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timestamp normalization: %w", err)
	}
	if fixed > 0 {
		log.Printf("[INFO] normalized %d legacy journal timestamps", fixed)
	}
	return nil
}

// migratePurchases imports a purchase-only history into the journal. Each
// purchase becomes a buy funded by a deposit of the same amount, so the
// total deposited equals the sum of historical buys. Runs once: only while
// the transaction journal is still empty.
func (s *SQLiteStore) migratePurchases(ctx context.Context) error {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name='purchases'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up purchases table: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if count > 0 {
		return nil
	}

	type purchase struct {
		ts    string
		price decimal.Decimal
		eur   decimal.Decimal
		btc   decimal.Decimal
	}
	rows, err := tx.QueryContext(ctx, `SELECT timestamp, price, eur_amount, btc_amount FROM purchases ORDER BY timestamp`)
	if err != nil {
		return fmt.Errorf("read purchases: %w", err)
	}
	var purchases []purchase
	for rows.Next() {
		var p purchase
		if err := rows.Scan(&p.ts, &p.price, &p.eur, &p.btc); err != nil {
			rows.Close()
			return fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read purchases: %w", err)
	}
	if len(purchases) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, p := range purchases {
		ts := p.ts
		if t, err := parseTime(p.ts); err == nil {
			ts = formatTime(t)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deposits (deposit_id, timestamp, eur_deposited) VALUES (?, ?, ?)`,
			uuid.NewString(), ts, p.eur); err != nil {
			return fmt.Errorf("migrate deposit: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (transaction_id, timestamp, type, price, eur_amount, btc_amount)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), ts, string(model.TxBuy), p.price, p.eur.Neg(), p.btc); err != nil {
			return fmt.Errorf("migrate purchase: %w", err)
		}
		total = total.Add(p.eur)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE app_state SET value = ? WHERE key = ?`, total, KeyTotalDeposited); err != nil {
		return fmt.Errorf("migrate total deposited: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	log.Printf("[INFO] migrated %d legacy purchases (%s deposited)", len(purchases), total.String())
	return nil
}

func (s *SQLiteStore) value(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, key string) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := q.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (s *SQLiteStore) LoadState(ctx context.Context) (model.LedgerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cash, err := s.value(ctx, s.db, KeyCashBalance)
	if err != nil {
		return model.LedgerState{}, err
	}
	total, err := s.value(ctx, s.db, KeyTotalDeposited)
	if err != nil {
		return model.LedgerState{}, err
	}
	return model.LedgerState{CashBalance: cash, TotalDeposited: total}, nil
}

func (s *SQLiteStore) AllTimeHigh(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value(ctx, s.db, KeyAllTimeHigh)
}

func (s *SQLiteStore) SetAllTimeHigh(ctx context.Context, v decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, KeyAllTimeHigh, v)
	if err != nil {
		return fmt.Errorf("write %s: %w", KeyAllTimeHigh, err)
	}
	return nil
}

func (s *SQLiteStore) ApplyDeposit(ctx context.Context, d model.Deposit, next model.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deposits (deposit_id, timestamp, eur_deposited) VALUES (?, ?, ?)`,
			d.ID, formatTime(d.Time), d.Amount); err != nil {
			return fmt.Errorf("insert deposit: %w", err)
		}
		return writeState(ctx, tx, next)
	})
}

func (s *SQLiteStore) ApplyTransaction(ctx context.Context, t model.Transaction, next model.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (transaction_id, timestamp, type, price, eur_amount, btc_amount)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, formatTime(t.Time), string(t.Kind), t.Price, t.CashDelta, t.AssetDelta); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return writeState(ctx, tx, next)
	})
}

func writeState(ctx context.Context, tx *sql.Tx, next model.LedgerState) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE app_state SET value = ? WHERE key = ?`, next.CashBalance, KeyCashBalance); err != nil {
		return fmt.Errorf("update %s: %w", KeyCashBalance, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE app_state SET value = ? WHERE key = ?`, next.TotalDeposited, KeyTotalDeposited); err != nil {
		return fmt.Errorf("update %s: %w", KeyTotalDeposited, err)
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Holdings(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT btc_amount FROM transactions`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v decimal.Decimal
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, fmt.Errorf("scan holdings: %w", err)
		}
		total = total.Add(v)
	}
	return total, rows.Err()
}

func (s *SQLiteStore) Transactions(ctx context.Context) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT transaction_id, timestamp, type, price, eur_amount, btc_amount
		 FROM transactions ORDER BY timestamp DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			t    model.Transaction
			ts   string
			kind string
		)
		if err := rows.Scan(&t.ID, &ts, &kind, &t.Price, &t.CashDelta, &t.AssetDelta); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = model.TxKind(kind)
		if t.Time, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse transaction time %q: %w", ts, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Deposits(ctx context.Context) ([]model.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT deposit_id, timestamp, eur_deposited FROM deposits ORDER BY timestamp DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query deposits: %w", err)
	}
	defer rows.Close()

	var out []model.Deposit
	for rows.Next() {
		var (
			d  model.Deposit
			ts string
		)
		if err := rows.Scan(&d.ID, &ts, &d.Amount); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		if d.Time, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse deposit time %q: %w", ts, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
