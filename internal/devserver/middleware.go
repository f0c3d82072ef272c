package devserver

import (
	"context"
	"net/http"
	"strings"
)

const (
	roleAdmin = "ADMIN"
	roleUser  = "USER"
)

type principalKey struct{}

type principal struct {
	UserID int64
	Role   string
}

func principalFrom(ctx context.Context) principal {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

// authenticate rejects requests without a valid bearer token. Tokens of
// deleted users, or issued before the last password change, are revoked.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		c, userID, err := s.tokens.parse(raw)
		if err != nil {
			s.logger.DebugContext(r.Context(), "rejected token", "error", err)
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		u, version, found := s.data.user(userID)
		if !found || version != c.Version || u.Role != c.Role {
			writeError(w, http.StatusUnauthorized, "Session has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal{UserID: userID, Role: c.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principalFrom(r.Context()).Role != role {
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
