package middleware

import (
	"encoding/json"
	"net/http"

	"pet-adoption/internal/ports/auth"
)

// RequireAuth corta con 401 si AuthContext no dejó claims.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetClaims(r.Context()); !ok {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, no valid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole deja pasar solo a los roles indicados. Asume RequireAuth antes.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Not authorized, no valid token")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				writeMessage(w, http.StatusForbidden, "Access denied: insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
