package guardian

import (
	"context"
	"fmt"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/events"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/ledger"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

// SignerTarget is the wallet surface the controller rotates. The call can
// fail for reasons the controller does not control, so failures surface as
// ErrExternalCallFailed rather than being retried.
type SignerTarget interface {
	CurrentSigner(ctx context.Context) (models.Address, error)
	SetSigner(ctx context.Context, signer models.Address) error
}

// Controller manages the guardian registry and executes signer rotations.
// The owner is fixed at construction and is always authorized; guardians
// are authorized only while their registry entry is active at the moment
// of the call.
type Controller struct {
	owner  models.Address
	led    ledger.Ledger
	target SignerTarget
	bus    *events.Bus
}

// NewController wires a controller to its registry ledger and wallet
// target.
func NewController(owner models.Address, led ledger.Ledger, target SignerTarget, bus *events.Bus) (*Controller, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("owner address must not be zero")
	}
	if led == nil {
		return nil, fmt.Errorf("ledger must not be nil")
	}
	if target == nil {
		return nil, fmt.Errorf("signer target must not be nil")
	}
	return &Controller{owner: owner, led: led, target: target, bus: bus}, nil
}

// Owner returns the fixed owner address.
func (c *Controller) Owner() models.Address {
	return c.owner
}

// SetGuardian grants or revokes guardian standing for addr. Owner only.
// Registry changes are deliberately silent: no event is emitted, so a
// compromised-key responder cannot be tipped off by watching the stream.
func (c *Controller) SetGuardian(ctx context.Context, caller, addr models.Address, active bool) error {
	if caller != c.owner {
		return models.ErrUnauthorized
	}
	if addr.IsZero() {
		return fmt.Errorf("guardian address must not be zero")
	}
	return c.led.SetGuardian(ctx, addr, active)
}

// IsAuthorized reports whether caller may rotate the signer right now.
// Guardian standing is read fresh on every call; a revoked guardian loses
// authority immediately.
func (c *Controller) IsAuthorized(ctx context.Context, caller models.Address) (bool, error) {
	if caller == c.owner {
		return true, nil
	}
	return c.led.IsGuardian(ctx, caller)
}

// RotateSigner replaces the wallet signer with newSigner on behalf of
// caller. The zero-address check runs before authorization, so a
// malformed request reports ErrInvalidSigner even from an unauthorized
// caller. On success the returned event has already been published.
func (c *Controller) RotateSigner(ctx context.Context, caller, newSigner models.Address) (models.SignerRotated, error) {
	if newSigner.IsZero() {
		return models.SignerRotated{}, models.ErrInvalidSigner
	}

	authorized, err := c.IsAuthorized(ctx, caller)
	if err != nil {
		return models.SignerRotated{}, fmt.Errorf("failed to check authorization: %w", err)
	}
	if !authorized {
		return models.SignerRotated{}, models.ErrUnauthorized
	}

	if err := c.target.SetSigner(ctx, newSigner); err != nil {
		return models.SignerRotated{}, fmt.Errorf("%w: set signer: %v", models.ErrExternalCallFailed, err)
	}

	if c.bus == nil {
		return models.SignerRotated{NewSigner: newSigner, Caller: caller}, nil
	}
	return c.bus.PublishRotation(newSigner, caller), nil
}

// Guardians lists the registry, active and inactive entries alike.
func (c *Controller) Guardians(ctx context.Context) ([]models.Guardian, error) {
	return c.led.ListGuardians(ctx)
}
