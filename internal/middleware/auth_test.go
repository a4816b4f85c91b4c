package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest-go/internal/model"
	"github.com/tasknest/tasknest-go/internal/repository"
)

type stubVerifier map[string]int64

func (s stubVerifier) VerifyAccess(token string) (int64, error) {
	id, ok := s[token]
	if !ok {
		return 0, errors.New("bad token")
	}
	return id, nil
}

type stubUsers struct {
	ids map[int64]bool
	err error
}

func (s stubUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.ids[id] {
		return nil, repository.ErrUserNotFound
	}
	return &model.User{ID: id}, nil
}

func TestAuthenticate(t *testing.T) {
	tokens := stubVerifier{"good": 7, "orphan": 8}
	users := stubUsers{ids: map[int64]bool{7: true}}

	tests := []struct {
		name       string
		header     string
		users      UserLookup
		wantStatus int
		wantError  string
	}{
		{"no header", "", users, http.StatusUnauthorized, "access token required"},
		{"wrong scheme", "Basic abc", users, http.StatusUnauthorized, "access token required"},
		{"empty bearer", "Bearer ", users, http.StatusUnauthorized, "access token required"},
		{"invalid token", "Bearer nope", users, http.StatusForbidden, "invalid or expired token"},
		{"deleted user", "Bearer orphan", users, http.StatusForbidden, "user no longer exists"},
		{"lookup failure", "Bearer good", stubUsers{err: errors.New("db down")}, http.StatusInternalServerError, "internal server error"},
		{"valid", "Bearer good", users, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := UserIDFromContext(r.Context())
				require.True(t, ok)
				gotID = id
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticate(tokens, tt.users)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				assert.Equal(t, int64(7), gotID)
				return
			}

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body["error"])
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), 3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}
