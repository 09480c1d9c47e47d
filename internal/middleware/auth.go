package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/chorify/internal/apperr"
	"github.com/dukerupert/chorify/internal/auth"
)

// Authenticator resolves a raw API token to the caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.AuthContext, error)
}

// RequireAuth validates the Authorization header and populates AuthContext.
// Both "Bearer <token>" and "Token <token>" are accepted. WebSocket upgrades
// may pass the token as a "token" query parameter since browsers cannot set
// headers on them.
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromHeader(r.Header.Get("Authorization"))
			if !ok && isWebSocketUpgrade(r) {
				token = r.URL.Query().Get("token")
				ok = token != ""
			}
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
				return
			}

			ac, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				status := apperr.HTTPStatus(apperr.Code(err))
				if status == http.StatusInternalServerError {
					writeError(w, status, "internal error")
					return
				}
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated account is an administrator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "you do not have permission to perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromHeader(h string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
