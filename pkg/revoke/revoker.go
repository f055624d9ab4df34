package revoke

import (
	"context"
	"fmt"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/ledger"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

// Revoker clears token approvals in all-or-nothing batches. Every batch
// runs in one ledger unit of work: if any single clear fails, the whole
// batch rolls back and the caller retries at their own discretion. The
// revoker itself never retries.
type Revoker struct {
	led ledger.Ledger
}

// NewRevoker creates a revoker over the given ledger.
func NewRevoker(led ledger.Ledger) *Revoker {
	return &Revoker{led: led}
}

// RevokeAllowances zeroes the fungible allowance for each positionally
// paired (tokens[i], spenders[i]) entry, in input order. The two slices
// must be the same length. Clearing an allowance that was never granted,
// or already zero, is a harmless no-op, so retrying a failed batch is
// always safe.
func (r *Revoker) RevokeAllowances(ctx context.Context, tokens, spenders []models.Address) error {
	if len(tokens) != len(spenders) {
		return models.ErrLengthMismatch
	}
	if len(tokens) == 0 {
		return nil
	}

	tx, err := r.led.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", models.ErrExternalCallFailed, err)
	}
	defer tx.Rollback()

	for i := range tokens {
		if err := tx.ClearAllowance(tokens[i], spenders[i]); err != nil {
			return fmt.Errorf("%w: clear allowance %s/%s: %v", models.ErrExternalCallFailed, tokens[i], spenders[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", models.ErrExternalCallFailed, err)
	}
	return nil
}

// RevokeOperatorApprovals clears the blanket approval held by operator
// across every listed collection: all erc721s first, then all erc1155s,
// each group in input order. Absent approvals clear as no-ops.
func (r *Revoker) RevokeOperatorApprovals(ctx context.Context, operator models.Address, erc721s, erc1155s []models.Address) error {
	if len(erc721s) == 0 && len(erc1155s) == 0 {
		return nil
	}

	tx, err := r.led.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", models.ErrExternalCallFailed, err)
	}
	defer tx.Rollback()

	for _, collection := range erc721s {
		if err := tx.ClearOperatorApproval(ledger.StandardERC721, collection, operator); err != nil {
			return fmt.Errorf("%w: clear erc721 approval %s: %v", models.ErrExternalCallFailed, collection, err)
		}
	}
	for _, collection := range erc1155s {
		if err := tx.ClearOperatorApproval(ledger.StandardERC1155, collection, operator); err != nil {
			return fmt.Errorf("%w: clear erc1155 approval %s: %v", models.ErrExternalCallFailed, collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", models.ErrExternalCallFailed, err)
	}
	return nil
}
