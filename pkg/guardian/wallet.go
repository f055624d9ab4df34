package guardian

import (
	"context"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/ledger"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

// Wallet is the ledger-backed signer target. Each SetSigner runs in its
// own unit of work.
type Wallet struct {
	led ledger.Ledger
}

// NewWallet creates a wallet over the given ledger.
func NewWallet(led ledger.Ledger) *Wallet {
	return &Wallet{led: led}
}

// CurrentSigner returns the active signer, empty before bootstrap.
func (w *Wallet) CurrentSigner(ctx context.Context) (models.Address, error) {
	return w.led.Signer(ctx)
}

// SetSigner replaces the active signer.
func (w *Wallet) SetSigner(ctx context.Context, signer models.Address) error {
	tx, err := w.led.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.SetSigner(signer); err != nil {
		return err
	}
	return tx.Commit()
}

var _ SignerTarget = (*Wallet)(nil)
