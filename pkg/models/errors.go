package models

import "errors"

// Error taxonomy for the recovery core. All failures are synchronous; the
// caller owns retry policy.
var (
	// ErrUnauthorized is returned when the caller is neither the owner nor
	// an active guardian.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrInvalidSigner is returned when a rotation targets the zero address.
	ErrInvalidSigner = errors.New("invalid signer address")

	// ErrLengthMismatch is returned when parallel token/spender slices
	// differ in length.
	ErrLengthMismatch = errors.New("tokens and spenders length mismatch")

	// ErrExternalCallFailed wraps a failure from a downstream wallet or
	// asset contract call. The whole unit of work is rolled back.
	ErrExternalCallFailed = errors.New("external call failed")
)
