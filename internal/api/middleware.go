// Package api implements the admin console REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/corvand/remedy/internal/session"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity returns the authenticated staff identity stored in the request
// context by RequireSession.
func Identity(ctx context.Context) string {
	id, _ := ctx.Value(identityKey).(string)
	return id
}

// RequireSession returns middleware guarding the protected views. A request
// must carry a valid "Authorization: Bearer <token>" header and a session
// must currently be active on the gate; otherwise the caller is told to sign
// in.
func RequireSession(auth *session.Authenticator, gate *session.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody("sign in required"))
				return
			}
			identity, err := auth.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil || !gate.Authenticated() {
				writeJSON(w, http.StatusUnauthorized, errorBody("sign in required"))
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
