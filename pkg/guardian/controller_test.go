package guardian_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/events"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/guardian"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/ledger"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

const (
	owner     = models.Address("0xaaaa000000000000000000000000000000000001")
	guard     = models.Address("0xaaaa000000000000000000000000000000000002")
	stranger  = models.Address("0xaaaa000000000000000000000000000000000003")
	newSigner = models.Address("0xaaaa000000000000000000000000000000000004")
)

func newTestController(t *testing.T) (*guardian.Controller, *guardian.Wallet, *events.Bus, ledger.Ledger) {
	t.Helper()

	led := ledger.NewMemory()
	wallet := guardian.NewWallet(led)
	bus := events.NewBus()

	c, err := guardian.NewController(owner, led, wallet, bus)
	require.NoError(t, err)
	return c, wallet, bus, led
}

func TestNewControllerRejectsZeroOwner(t *testing.T) {
	led := ledger.NewMemory()
	_, err := guardian.NewController(models.ZeroAddress, led, guardian.NewWallet(led), events.NewBus())
	assert.Error(t, err)
}

func TestOwnerCanRotate(t *testing.T) {
	ctx := context.Background()
	c, wallet, _, _ := newTestController(t)

	event, err := c.RotateSigner(ctx, owner, newSigner)
	require.NoError(t, err)
	assert.Equal(t, newSigner, event.NewSigner)
	assert.Equal(t, owner, event.Caller)
	assert.NotEmpty(t, event.ID)

	signer, err := wallet.CurrentSigner(ctx)
	require.NoError(t, err)
	assert.Equal(t, newSigner, signer)
}

func TestActiveGuardianCanRotate(t *testing.T) {
	ctx := context.Background()
	c, wallet, _, _ := newTestController(t)

	require.NoError(t, c.SetGuardian(ctx, owner, guard, true))

	_, err := c.RotateSigner(ctx, guard, newSigner)
	require.NoError(t, err)

	signer, err := wallet.CurrentSigner(ctx)
	require.NoError(t, err)
	assert.Equal(t, newSigner, signer)
}

func TestStrangerCannotRotate(t *testing.T) {
	ctx := context.Background()
	c, wallet, _, _ := newTestController(t)

	_, err := c.RotateSigner(ctx, stranger, newSigner)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	signer, err := wallet.CurrentSigner(ctx)
	require.NoError(t, err)
	assert.True(t, signer.IsZero(), "signer must be untouched after rejected rotation")
}

func TestDisabledGuardianLosesAuthorityImmediately(t *testing.T) {
	ctx := context.Background()
	c, _, _, _ := newTestController(t)

	require.NoError(t, c.SetGuardian(ctx, owner, guard, true))
	require.NoError(t, c.SetGuardian(ctx, owner, guard, false))

	_, err := c.RotateSigner(ctx, guard, newSigner)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestZeroSignerRejectedBeforeAuthorization(t *testing.T) {
	ctx := context.Background()
	c, _, _, _ := newTestController(t)

	// Even an unauthorized caller sees the invalid-signer error, not the
	// authorization error.
	_, err := c.RotateSigner(ctx, stranger, models.ZeroAddress)
	assert.ErrorIs(t, err, models.ErrInvalidSigner)

	_, err = c.RotateSigner(ctx, owner, models.ZeroAddress)
	assert.ErrorIs(t, err, models.ErrInvalidSigner)
}

func TestSetGuardianOwnerOnly(t *testing.T) {
	ctx := context.Background()
	c, _, _, _ := newTestController(t)

	err := c.SetGuardian(ctx, stranger, guard, true)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	err = c.SetGuardian(ctx, guard, guard, true)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSetGuardianRejectsZeroAddress(t *testing.T) {
	ctx := context.Background()
	c, _, _, _ := newTestController(t)

	assert.Error(t, c.SetGuardian(ctx, owner, models.ZeroAddress, true))
}

func TestRotationEventOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	c, _, bus, _ := newTestController(t)

	var got []models.SignerRotated
	bus.Subscribe(func(e models.SignerRotated) {
		got = append(got, e)
	})

	_, err := c.RotateSigner(ctx, stranger, newSigner)
	require.Error(t, err)
	assert.Empty(t, got, "failed rotation must not publish an event")

	_, err = c.RotateSigner(ctx, owner, newSigner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, newSigner, got[0].NewSigner)
	assert.Equal(t, owner, got[0].Caller)
}

func TestSetGuardianEmitsNoEvent(t *testing.T) {
	ctx := context.Background()
	c, _, bus, _ := newTestController(t)

	published := 0
	bus.Subscribe(func(models.SignerRotated) { published++ })

	require.NoError(t, c.SetGuardian(ctx, owner, guard, true))
	require.NoError(t, c.SetGuardian(ctx, owner, guard, false))
	assert.Zero(t, published, "registry changes are silent")
}

type failingTarget struct{}

func (failingTarget) CurrentSigner(context.Context) (models.Address, error) {
	return "", nil
}

func (failingTarget) SetSigner(context.Context, models.Address) error {
	return errors.New("wallet unreachable")
}

func TestTargetFailureSurfacesAsExternalCallFailed(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	bus := events.NewBus()

	published := 0
	bus.Subscribe(func(models.SignerRotated) { published++ })

	c, err := guardian.NewController(owner, led, failingTarget{}, bus)
	require.NoError(t, err)

	_, err = c.RotateSigner(ctx, owner, newSigner)
	assert.ErrorIs(t, err, models.ErrExternalCallFailed)
	assert.Zero(t, published, "failed rotation must not publish an event")
}
