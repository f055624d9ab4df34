package identity

import (
	"context"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
)

type contextKey string

const callerKey contextKey = "caller"

// WithCaller returns a context carrying the authenticated caller address.
func WithCaller(ctx context.Context, caller models.Address) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext extracts the authenticated caller address from the
// context. Returns the empty address and false if no caller is set.
func CallerFromContext(ctx context.Context) (models.Address, bool) {
	caller, ok := ctx.Value(callerKey).(models.Address)
	return caller, ok
}
