package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

// Postgres is a PostgreSQL-backed ledger for deployments where the
// recovery state must live on a shared database server.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a PostgreSQL ledger using the given connection string.
func NewPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres ledger requires a DSN")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	l := &Postgres{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return l, nil
}

func (l *Postgres) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS guardians (
		address TEXT PRIMARY KEY,
		active BOOLEAN NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS signer (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		address TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS allowances (
		token TEXT NOT NULL,
		spender TEXT NOT NULL,
		amount TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (token, spender)
	);

	CREATE TABLE IF NOT EXISTS operator_approvals (
		standard TEXT NOT NULL,
		collection TEXT NOT NULL,
		operator TEXT NOT NULL,
		approved BOOLEAN NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (standard, collection, operator)
	);

	CREATE INDEX IF NOT EXISTS idx_guardians_active ON guardians(active);
	`

	_, err := l.db.Exec(schema)
	return err
}

func (l *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx}, nil
}

func (l *Postgres) Signer(ctx context.Context) (models.Address, error) {
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

func (l *Postgres) IsGuardian(ctx context.Context, addr models.Address) (bool, error) {
	var active bool
	err := l.db.QueryRowContext(ctx, `SELECT active FROM guardians WHERE address = $1`, string(addr)).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active, nil
}

func (l *Postgres) ListGuardians(ctx context.Context) ([]models.Guardian, error) {
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

func (l *Postgres) Allowance(ctx context.Context, token, spender models.Address) (string, error) {
	var amount string
	err := l.db.QueryRowContext(ctx, `
		SELECT amount FROM allowances WHERE token = $1 AND spender = $2
	`, string(token), string(spender)).Scan(&amount)
	if err == sql.ErrNoRows {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return amount, nil
}

func (l *Postgres) IsOperatorApproved(ctx context.Context, std Standard, collection, operator models.Address) (bool, error) {
	var approved bool
	err := l.db.QueryRowContext(ctx, `
		SELECT approved FROM operator_approvals WHERE standard = $1 AND collection = $2 AND operator = $3
	`, string(std), string(collection), string(operator)).Scan(&approved)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return approved, nil
}

func (l *Postgres) SetGuardian(ctx context.Context, addr models.Address, active bool) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO guardians (address, active, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE SET active = EXCLUDED.active, updated_at = EXCLUDED.updated_at
	`, string(addr), active, time.Now().UTC())
	return err
}

func (l *Postgres) Approve(ctx context.Context, token, spender models.Address, amount string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO allowances (token, spender, amount, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (token, spender) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`, string(token), string(spender), amount, time.Now().UTC())
	return err
}

func (l *Postgres) SetOperatorApproval(ctx context.Context, std Standard, collection, operator models.Address, approved bool) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO operator_approvals (standard, collection, operator, approved, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (standard, collection, operator)
		DO UPDATE SET approved = EXCLUDED.approved, updated_at = EXCLUDED.updated_at
	`, string(std), string(collection), string(operator), approved, time.Now().UTC())
	return err
}

func (l *Postgres) Close() error {
	return l.db.Close()
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) SetSigner(addr models.Address) error {
	_, err := t.tx.Exec(`
		INSERT INTO signer (id, address, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET address = EXCLUDED.address, updated_at = EXCLUDED.updated_at
	`, string(addr), time.Now().UTC())
	return err
}

func (t *postgresTx) ClearAllowance(token, spender models.Address) error {
	_, err := t.tx.Exec(`
		UPDATE allowances SET amount = '0', updated_at = $1 WHERE token = $2 AND spender = $3
	`, time.Now().UTC(), string(token), string(spender))
	return err
}

func (t *postgresTx) ClearOperatorApproval(std Standard, collection, operator models.Address) error {
	_, err := t.tx.Exec(`
		UPDATE operator_approvals SET approved = FALSE, updated_at = $1
		WHERE standard = $2 AND collection = $3 AND operator = $4
	`, time.Now().UTC(), string(std), string(collection), string(operator))
	return err
}

func (t *postgresTx) Commit() error {
	return t.tx.Commit()
}

func (t *postgresTx) Rollback() error {
	return t.tx.Rollback()
}
