package ledger

import (
	"context"
	"errors"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

// Standard identifies which blanket operator-approval shape a collection
// uses.
type Standard string

const (
	StandardERC721  Standard = "erc721"
	StandardERC1155 Standard = "erc1155"
)

// Ledger is the serialized execution layer the recovery core runs against.
// Single writes are atomic on their own; multi-step operations go through
// Begin so a downstream failure rolls back every prior step in the same
// unit of work.
type Ledger interface {
	Begin(ctx context.Context) (Tx, error)

	// Read side. A missing allowance reads as "0" and a missing operator
	// approval reads as false; clearing either is a harmless no-op.
	Signer(ctx context.Context) (models.Address, error)
	IsGuardian(ctx context.Context, addr models.Address) (bool, error)
	ListGuardians(ctx context.Context) ([]models.Guardian, error)
	Allowance(ctx context.Context, token, spender models.Address) (string, error)
	IsOperatorApproved(ctx context.Context, std Standard, collection, operator models.Address) (bool, error)

	// Single-write mutations, each its own atomic unit of work.
	SetGuardian(ctx context.Context, addr models.Address, active bool) error
	Approve(ctx context.Context, token, spender models.Address, amount string) error
	SetOperatorApproval(ctx context.Context, std Standard, collection, operator models.Address, approved bool) error

	Close() error
}

// Tx is one all-or-nothing unit of work. Commit makes every staged write
// visible; Rollback (or a failed Commit) leaves the ledger untouched.
type Tx interface {
	SetSigner(addr models.Address) error
	ClearAllowance(token, spender models.Address) error
	ClearOperatorApproval(std Standard, collection, operator models.Address) error
	Commit() error
	Rollback() error
}

// Config selects and parameterizes a ledger backend.
type Config struct {
	Driver string // "sqlite", "postgres" or "memory"
	Path   string // sqlite database path
	DSN    string // postgres connection string
}

var ErrUnsupportedDriver = errors.New("unsupported ledger driver")

// New creates a ledger based on configuration. An empty driver defaults
// to sqlite.
func New(cfg Config) (Ledger, error) {
	switch cfg.Driver {
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = "sentinel.db"
		}
		return NewSQLite(path)
	default:
		return nil, ErrUnsupportedDriver
	}
}

var (
	_ Ledger = (*SQLite)(nil)
	_ Ledger = (*Postgres)(nil)
	_ Ledger = (*Memory)(nil)
)
