package storage

// sqlite.go — persisted risk ledger.
//
// Layout:
//   - `bankroll_state`: singleton row (id = 1), the only row ever updated
//     in place.
//   - `transactions`, `shadow_bets`, `audit_log`: append-only. The access
//     layer exposes no update or delete on them (the exceptions are grading
//     a shadow bet's status and the explicit ledger reset).
//   - Single writer: SetMaxOpenConns(1); every bankroll update runs as one
//     read-modify-write inside a sql transaction.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/betguard/internal/domain"
)

const schema = `
-- Singleton financial state
CREATE TABLE IF NOT EXISTS bankroll_state (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    current_units  REAL     NOT NULL,
    initial_units  REAL     NOT NULL,
    peak_units     REAL     NOT NULL,
    max_drawdown   REAL     NOT NULL DEFAULT 0,
    kelly_fraction REAL     NOT NULL DEFAULT 0.25,
    status         TEXT     NOT NULL DEFAULT 'ACTIVE',
    last_updated   DATETIME NOT NULL
);

-- Append-only financial ledger
CREATE TABLE IF NOT EXISTS transactions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    ref            TEXT     NOT NULL,
    ts             DATETIME NOT NULL,
    type           TEXT     NOT NULL,
    amount         REAL     NOT NULL,
    balance_after  REAL     NOT NULL,
    note           TEXT     NOT NULL DEFAULT '',
    expected_value REAL     NOT NULL DEFAULT 0
);

-- Append-only decision ledger, every evaluated opportunity
CREATE TABLE IF NOT EXISTS shadow_bets (
    id             TEXT PRIMARY KEY,
    game_id        TEXT     NOT NULL,
    decision       TEXT     NOT NULL,
    probability    REAL     NOT NULL,
    odds           REAL     NOT NULL,
    ev             REAL     NOT NULL,
    stake_units    REAL     NOT NULL,
    kelly_fraction REAL     NOT NULL,
    status         TEXT     NOT NULL DEFAULT 'PENDING',
    reason         TEXT     NOT NULL DEFAULT '',
    ts             DATETIME NOT NULL
);

-- Append-only behavioral trail
CREATE TABLE IF NOT EXISTS audit_log (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    ts         DATETIME NOT NULL,
    event_type TEXT     NOT NULL,
    game_id    TEXT     NOT NULL DEFAULT '',
    details    TEXT     NOT NULL DEFAULT '',
    old_state  TEXT     NOT NULL DEFAULT '',
    new_state  TEXT     NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tx_type    ON transactions(type, id DESC);
CREATE INDEX IF NOT EXISTS idx_shadow_ts  ON shadow_bets(ts DESC);
CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_log(event_type, id DESC);
`

// lossScanDepth bounds the streak scan over the ledger tail. The pause
// threshold is 10, so 20 recent bet rows are more than enough.
const lossScanDepth = 20

// SQLiteStorage implements ports.BankrollStorage, ports.ShadowStorage and
// ports.AuditStorage over a single SQLite file (pure Go, no CGo).
type SQLiteStorage struct {
	db           *sql.DB
	initialUnits float64
}

// NewSQLiteStorage opens (or creates) the database at path, applies the
// schema and seeds the singleton bankroll row at initialUnits.
func NewSQLiteStorage(path string, initialUnits float64) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{db: db, initialUnits: initialUnits}
	if err := s.ApplySchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// ApplySchema creates tables and ensures the singleton state row exists.
func (s *SQLiteStorage) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage.ApplySchema: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bankroll_state`).Scan(&count); err != nil {
		return fmt.Errorf("storage.ApplySchema: count state: %w", err)
	}
	if count == 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO bankroll_state (id, current_units, initial_units, peak_units, max_drawdown, kelly_fraction, status, last_updated)
			VALUES (1, ?, ?, ?, 0.0, 0.25, 'ACTIVE', ?)
		`, s.initialUnits, s.initialUnits, s.initialUnits, encodeTime(time.Now()))
		if err != nil {
			return fmt.Errorf("storage.ApplySchema: seed state: %w", err)
		}
	}
	return nil
}

// GetState reads the singleton bankroll row.
func (s *SQLiteStorage) GetState(ctx context.Context) (domain.BankrollState, error) {
	return scanState(s.db.QueryRowContext(ctx, `
		SELECT current_units, initial_units, peak_units, max_drawdown, kelly_fraction, status, last_updated
		FROM bankroll_state WHERE id = 1
	`))
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Timestamps are stored as RFC 3339 text. The driver's default time.Time
// encoding is not round-trippable, so encoding is explicit on both sides.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func scanState(row rowScanner) (domain.BankrollState, error) {
	var state domain.BankrollState
	var status, updated string
	if err := row.Scan(
		&state.CurrentUnits,
		&state.InitialUnits,
		&state.PeakUnits,
		&state.MaxDrawdown,
		&state.KellyFraction,
		&status,
		&updated,
	); err != nil {
		return domain.BankrollState{}, fmt.Errorf("storage.GetState: scan: %w", err)
	}
	state.Status = domain.BankrollStatus(status)
	ts, err := decodeTime(updated)
	if err != nil {
		return domain.BankrollState{}, fmt.Errorf("storage.GetState: last_updated: %w", err)
	}
	state.LastUpdated = ts
	return state, nil
}

// UpdateAtomic runs one read-modify-write against the ledger. The state
// read, the consecutive-loss count, the appended transaction and the state
// write all live inside the same sql transaction; a concurrent writer waits
// on the single connection instead of racing.
func (s *SQLiteStorage) UpdateAtomic(ctx context.Context, fn func(state domain.BankrollState, consecutiveLosses int) (domain.BankrollState, domain.Transaction, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.UpdateAtomic: begin: %w", err)
	}
	defer tx.Rollback()

	state, err := scanState(tx.QueryRowContext(ctx, `
		SELECT current_units, initial_units, peak_units, max_drawdown, kelly_fraction, status, last_updated
		FROM bankroll_state WHERE id = 1
	`))
	if err != nil {
		return fmt.Errorf("storage.UpdateAtomic: %w", err)
	}

	losses, err := consecutiveLosses(ctx, tx)
	if err != nil {
		return fmt.Errorf("storage.UpdateAtomic: %w", err)
	}

	next, entry, err := fn(state, losses)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (ref, ts, type, amount, balance_after, note, expected_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Ref, encodeTime(entry.Timestamp), string(entry.Type), entry.Amount, entry.BalanceAfter, entry.Note, entry.ExpectedValue); err != nil {
		return fmt.Errorf("storage.UpdateAtomic: append transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bankroll_state
		SET current_units = ?, peak_units = ?, max_drawdown = ?, kelly_fraction = ?, status = ?, last_updated = ?
		WHERE id = 1
	`, next.CurrentUnits, next.PeakUnits, next.MaxDrawdown, next.KellyFraction, string(next.Status), encodeTime(next.LastUpdated)); err != nil {
		return fmt.Errorf("storage.UpdateAtomic: update state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.UpdateAtomic: commit: %w", err)
	}
	return nil
}

// consecutiveLosses counts BET_LOSS entries from the ledger tail, stopping
// at the first win. Adjustments and resets do not break the streak.
func consecutiveLosses(ctx context.Context, tx *sql.Tx) (int, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT type FROM transactions
		WHERE type IN ('BET_WIN', 'BET_LOSS')
		ORDER BY id DESC LIMIT ?
	`, lossScanDepth)
	if err != nil {
		return 0, fmt.Errorf("count losses: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var txType string
		if err := rows.Scan(&txType); err != nil {
			return 0, fmt.Errorf("count losses: scan: %w", err)
		}
		if txType != string(domain.TxBetLoss) {
			break
		}
		count++
	}
	return count, rows.Err()
}

// Transactions returns ledger entries newest first. limit <= 0 means all.
func (s *SQLiteStorage) Transactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	q := `
		SELECT id, ref, ts, type, amount, balance_after, note, expected_value
		FROM transactions ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.Transactions: query: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var ts, txType string
		if err := rows.Scan(&t.ID, &t.Ref, &ts, &txType, &t.Amount, &t.BalanceAfter, &t.Note, &t.ExpectedValue); err != nil {
			return nil, fmt.Errorf("storage.Transactions: scan: %w", err)
		}
		t.Type = domain.TransactionType(txType)
		t.Timestamp, err = decodeTime(ts)
		if err != nil {
			return nil, fmt.Errorf("storage.Transactions: ts: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// Reset clears the transaction log and reseeds the bankroll at
// initialUnits, logging a RESET entry as the fresh ledger's first row.
func (s *SQLiteStorage) Reset(ctx context.Context, initialUnits float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Reset: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("storage.Reset: clear ledger: %w", err)
	}

	now := encodeTime(time.Now())
	if _, err := tx.ExecContext(ctx, `
		UPDATE bankroll_state
		SET current_units = ?, initial_units = ?, peak_units = ?,
		    max_drawdown = 0.0, kelly_fraction = 0.25, status = 'ACTIVE', last_updated = ?
		WHERE id = 1
	`, initialUnits, initialUnits, initialUnits, now); err != nil {
		return fmt.Errorf("storage.Reset: reset state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (ref, ts, type, amount, balance_after, note, expected_value)
		VALUES (?, ?, ?, ?, ?, 'system reset', 0)
	`, uuid.New().String(), now, string(domain.TxReset), initialUnits, initialUnits); err != nil {
		return fmt.Errorf("storage.Reset: log reset: %w", err)
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
