package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

// SQLite is a SQLite-backed ledger. WAL mode plus a single writer
// connection keeps units of work serialized without lock contention.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite ledger at the given path.
func NewSQLite(path string) (*SQLite, error) {
	// _txlock=immediate acquires the write lock at transaction start so a
	// revocation batch never deadlocks halfway through.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL&_txlock=immediate", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	l := &SQLite{db: db}
	if err := l.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return l, nil
}

func (l *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS guardians (
		address TEXT PRIMARY KEY,
		active BOOLEAN NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS signer (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		address TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS allowances (
		token TEXT NOT NULL,
		spender TEXT NOT NULL,
		amount TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (token, spender)
	);

	CREATE TABLE IF NOT EXISTS operator_approvals (
		standard TEXT NOT NULL,
		collection TEXT NOT NULL,
		operator TEXT NOT NULL,
		approved BOOLEAN NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (standard, collection, operator)
	);

	CREATE INDEX IF NOT EXISTS idx_guardians_active ON guardians(active);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Begin starts a unit of work.
func (l *SQLite) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// Signer returns the current wallet signer, or the empty address when the
// wallet has not been bootstrapped yet.
func (l *SQLite) Signer(ctx context.Context) (models.Address, error) {
	var addr string
	err := l.db.QueryRowContext(ctx, `SELECT address FROM signer WHERE id = 1`).Scan(&addr)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return models.Address(addr), nil
}

// IsGuardian reports whether addr is an active registry entry.
func (l *SQLite) IsGuardian(ctx context.Context, addr models.Address) (bool, error) {
	var active bool
	err := l.db.QueryRowContext(ctx, `SELECT active FROM guardians WHERE address = ?`, string(addr)).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active, nil
}

// ListGuardians returns every registry entry, active or not.
func (l *SQLite) ListGuardians(ctx context.Context) ([]models.Guardian, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT address, active, updated_at FROM guardians ORDER BY address
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guardians []models.Guardian
	for rows.Next() {
		var g models.Guardian
		var addr string
		if err := rows.Scan(&addr, &g.Active, &g.UpdatedAt); err != nil {
			return nil, err
		}
		g.Address = models.Address(addr)
		guardians = append(guardians, g)
	}
	return guardians, rows.Err()
}

// Allowance returns the stored allowance, or "0" when none was ever set.
func (l *SQLite) Allowance(ctx context.Context, token, spender models.Address) (string, error) {
	var amount string
	err := l.db.QueryRowContext(ctx, `
		SELECT amount FROM allowances WHERE token = ? AND spender = ?
	`, string(token), string(spender)).Scan(&amount)
	if err == sql.ErrNoRows {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return amount, nil
}

// IsOperatorApproved reports the blanket approval flag, false when unset.
func (l *SQLite) IsOperatorApproved(ctx context.Context, std Standard, collection, operator models.Address) (bool, error) {
	var approved bool
	err := l.db.QueryRowContext(ctx, `
		SELECT approved FROM operator_approvals WHERE standard = ? AND collection = ? AND operator = ?
	`, string(std), string(collection), string(operator)).Scan(&approved)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return approved, nil
}

// SetGuardian upserts one registry entry.
func (l *SQLite) SetGuardian(ctx context.Context, addr models.Address, active bool) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO guardians (address, active, updated_at) VALUES (?, ?, ?)
	`, string(addr), active, time.Now().UTC())
	return err
}

// Approve upserts an allowance. Used to seed state the revoker clears.
func (l *SQLite) Approve(ctx context.Context, token, spender models.Address, amount string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO allowances (token, spender, amount, updated_at) VALUES (?, ?, ?, ?)
	`, string(token), string(spender), amount, time.Now().UTC())
	return err
}

// SetOperatorApproval upserts a blanket approval flag.
func (l *SQLite) SetOperatorApproval(ctx context.Context, std Standard, collection, operator models.Address, approved bool) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO operator_approvals (standard, collection, operator, approved, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(std), string(collection), string(operator), approved, time.Now().UTC())
	return err
}

// Close closes the database connection.
func (l *SQLite) Close() error {
	return l.db.Close()
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) SetSigner(addr models.Address) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO signer (id, address, updated_at) VALUES (1, ?, ?)
	`, string(addr), time.Now().UTC())
	return err
}

func (t *sqliteTx) ClearAllowance(token, spender models.Address) error {
	// No row means nothing was ever approved: clearing stays a no-op.
	_, err := t.tx.Exec(`
		UPDATE allowances SET amount = '0', updated_at = ? WHERE token = ? AND spender = ?
	`, time.Now().UTC(), string(token), string(spender))
	return err
}

func (t *sqliteTx) ClearOperatorApproval(std Standard, collection, operator models.Address) error {
	_, err := t.tx.Exec(`
		UPDATE operator_approvals SET approved = 0, updated_at = ?
		WHERE standard = ? AND collection = ? AND operator = ?
	`, time.Now().UTC(), string(std), string(collection), string(operator))
	return err
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}
