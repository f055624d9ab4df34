package revoke_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/ledger"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/revoke"
)

var (
	tokenA   = models.Address("0xbbbb000000000000000000000000000000000001")
	tokenB   = models.Address("0xbbbb000000000000000000000000000000000002")
	spenderA = models.Address("0xbbbb000000000000000000000000000000000003")
	spenderB = models.Address("0xbbbb000000000000000000000000000000000004")
	operator = models.Address("0xbbbb000000000000000000000000000000000005")
	nft721   = models.Address("0xbbbb000000000000000000000000000000000006")
	nft1155  = models.Address("0xbbbb000000000000000000000000000000000007")
)

func TestRevokeAllowancesLengthMismatch(t *testing.T) {
	r := revoke.NewRevoker(ledger.NewMemory())

	err := r.RevokeAllowances(context.Background(),
		[]models.Address{tokenA, tokenB},
		[]models.Address{spenderA})
	assert.ErrorIs(t, err, models.ErrLengthMismatch)
}

func TestRevokeAllowancesClearsBatch(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	r := revoke.NewRevoker(led)

	require.NoError(t, led.Approve(ctx, tokenA, spenderA, "500"))
	require.NoError(t, led.Approve(ctx, tokenB, spenderB, "900"))

	err := r.RevokeAllowances(ctx,
		[]models.Address{tokenA, tokenB},
		[]models.Address{spenderA, spenderB})
	require.NoError(t, err)

	for _, pair := range [][2]models.Address{{tokenA, spenderA}, {tokenB, spenderB}} {
		amount, err := led.Allowance(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, "0", amount)
	}
}

func TestRevokeAllowancesIdempotent(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	r := revoke.NewRevoker(led)

	tokens := []models.Address{tokenA}
	spenders := []models.Address{spenderA}

	// Nothing was ever approved; clearing is still a success.
	require.NoError(t, r.RevokeAllowances(ctx, tokens, spenders))

	require.NoError(t, led.Approve(ctx, tokenA, spenderA, "500"))
	require.NoError(t, r.RevokeAllowances(ctx, tokens, spenders))
	require.NoError(t, r.RevokeAllowances(ctx, tokens, spenders))

	amount, err := led.Allowance(ctx, tokenA, spenderA)
	require.NoError(t, err)
	assert.Equal(t, "0", amount)
}

func TestRevokeAllowancesEmptyBatch(t *testing.T) {
	r := revoke.NewRevoker(ledger.NewMemory())
	assert.NoError(t, r.RevokeAllowances(context.Background(), nil, nil))
}

func TestRevokeOperatorApprovalsClearsBothStandards(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	r := revoke.NewRevoker(led)

	require.NoError(t, led.SetOperatorApproval(ctx, ledger.StandardERC721, nft721, operator, true))
	require.NoError(t, led.SetOperatorApproval(ctx, ledger.StandardERC1155, nft1155, operator, true))

	err := r.RevokeOperatorApprovals(ctx, operator,
		[]models.Address{nft721},
		[]models.Address{nft1155})
	require.NoError(t, err)

	approved, err := led.IsOperatorApproved(ctx, ledger.StandardERC721, nft721, operator)
	require.NoError(t, err)
	assert.False(t, approved)

	approved, err = led.IsOperatorApproved(ctx, ledger.StandardERC1155, nft1155, operator)
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestRevokeOperatorApprovalsEmptyBatch(t *testing.T) {
	r := revoke.NewRevoker(ledger.NewMemory())
	assert.NoError(t, r.RevokeOperatorApprovals(context.Background(), operator, nil, nil))
}

// flakyLedger fails a chosen clear call to exercise batch atomicity.
type flakyLedger struct {
	*ledger.Memory
	failAfter int
}

func (l *flakyLedger) Begin(ctx context.Context) (ledger.Tx, error) {
	tx, err := l.Memory.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &flakyTx{Tx: tx, remaining: l.failAfter}, nil
}

type flakyTx struct {
	ledger.Tx
	remaining int
}

func (t *flakyTx) ClearAllowance(token, spender models.Address) error {
	if t.remaining == 0 {
		return errors.New("injected clear failure")
	}
	t.remaining--
	return t.Tx.ClearAllowance(token, spender)
}

func (t *flakyTx) ClearOperatorApproval(std ledger.Standard, collection, op models.Address) error {
	if t.remaining == 0 {
		return errors.New("injected clear failure")
	}
	t.remaining--
	return t.Tx.ClearOperatorApproval(std, collection, op)
}

func TestRevokeOperatorApprovalsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	mem := ledger.NewMemory()
	led := &flakyLedger{Memory: mem, failAfter: 1}
	r := revoke.NewRevoker(led)

	require.NoError(t, mem.SetOperatorApproval(ctx, ledger.StandardERC721, nft721, operator, true))
	require.NoError(t, mem.SetOperatorApproval(ctx, ledger.StandardERC1155, nft1155, operator, true))

	// The ERC-1155 clear fails; the ERC-721 clear must not land either.
	err := r.RevokeOperatorApprovals(ctx, operator,
		[]models.Address{nft721},
		[]models.Address{nft1155})
	assert.ErrorIs(t, err, models.ErrExternalCallFailed)

	approved, err := mem.IsOperatorApproved(ctx, ledger.StandardERC721, nft721, operator)
	require.NoError(t, err)
	assert.True(t, approved, "partial batch must roll back")
}

func TestRevokeAllowancesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	mem := ledger.NewMemory()
	led := &flakyLedger{Memory: mem, failAfter: 1}
	r := revoke.NewRevoker(led)

	require.NoError(t, mem.Approve(ctx, tokenA, spenderA, "500"))
	require.NoError(t, mem.Approve(ctx, tokenB, spenderB, "900"))

	// The second clear fails; the first must not land either.
	err := r.RevokeAllowances(ctx,
		[]models.Address{tokenA, tokenB},
		[]models.Address{spenderA, spenderB})
	assert.ErrorIs(t, err, models.ErrExternalCallFailed)

	amount, err := mem.Allowance(ctx, tokenA, spenderA)
	require.NoError(t, err)
	assert.Equal(t, "500", amount, "partial batch must roll back")

	amount, err = mem.Allowance(ctx, tokenB, spenderB)
	require.NoError(t, err)
	assert.Equal(t, "900", amount)
}
