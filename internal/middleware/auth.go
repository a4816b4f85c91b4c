package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tasknest/tasknest-go/internal/model"
	"github.com/tasknest/tasknest-go/internal/repository"
)

type contextKey string

const userIDKey contextKey = "userID"

// AccessVerifier checks an access token and returns its subject.
type AccessVerifier interface {
	VerifyAccess(token string) (int64, error)
}

// UserLookup confirms the token subject still exists.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Authenticate returns middleware that requires a valid Bearer access token
// whose user still exists, and attaches that user's ID to the request context.
func Authenticate(tokens AccessVerifier, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			token = strings.TrimSpace(token)
			if !found || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "access token required")
				return
			}

			userID, err := tokens.VerifyAccess(token)
			if err != nil {
				writeJSONError(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			if _, err := users.GetByID(r.Context(), userID); err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					writeJSONError(w, http.StatusForbidden, "user no longer exists")
					return
				}
				slog.ErrorContext(r.Context(), "loading authenticated user failed", "user_id", userID, "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WithUserID returns a copy of ctx carrying userID, as Authenticate does.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
