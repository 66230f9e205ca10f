package http

import (
	"context"
	"errors"
	"net/http"

	"budgetd/internal/core"
	"budgetd/internal/log"
)

type contextKey string

const userKey contextKey = "user"

// currentUser returns the authenticated user stored by withAuth.
func currentUser(ctx context.Context) *core.User {
	u, _ := ctx.Value(userKey).(*core.User)
	return u
}

// withAuth resolves the X-API-Key header to a user and stores it in the
// request context. Missing and unknown keys both come back as a plain 401.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing API key"})
			return
		}

		user, err := s.store.UserByAPIKey(r.Context(), apiKey)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid API key"})
				return
			}
			s.logger.ErrorContext(r.Context(), "API key lookup failed", log.FieldError, err)
			s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	}
}
