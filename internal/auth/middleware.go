package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// OnAuthenticated, when set, is called after every successful bearer check.
// The server uses it to record presence.
type OnAuthenticated func(ctx context.Context, userID string)

func (s *Service) bearerFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAPI rejects requests without a valid bearer token and places the
// resolved account on the request context.
func (s *Service) RequireAPI(hook OnAuthenticated) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := s.bearerFromRequest(r)
			if bearer == "" {
				writeAuthError(w, http.StatusUnauthorized, "access denied")
				return
			}
			u, err := s.Authenticate(r.Context(), bearer)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "invalid token")
				return
			}
			if hook != nil {
				hook(r.Context(), u.ID)
			}
			next.ServeHTTP(w, r.WithContext(withUserContext(r.Context(), u)))
		})
	}
}

// RequireAdmin must run inside RequireAPI; it rejects non-admin accounts.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok || !u.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "access denied, admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
