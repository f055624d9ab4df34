package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/auth"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/identity"
)

// AuthMiddleware resolves the bearer API key to a caller address and puts
// it on the request context. Health checks pass through unauthenticated.
func AuthMiddleware(keyring *auth.Keyring) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, auth.ErrInvalidKey)
				return
			}

			caller, err := keyring.Resolve(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, auth.ErrInvalidKey)
				return
			}

			ctx := identity.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
