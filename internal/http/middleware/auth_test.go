package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/household/internal/auth"
	"github.com/MrJamesThe3rd/household/internal/family"
	"github.com/MrJamesThe3rd/household/internal/http/middleware"
)

func TestRequireAuth(t *testing.T) {
	jwtService := auth.NewJWTService("secret", "household-auth")

	userID, familyID := uuid.New(), uuid.New()

	withFamily, err := jwtService.GenerateToken(userID, &familyID)
	require.NoError(t, err)

	withoutFamily, err := jwtService.GenerateToken(userID, nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantFamily bool
	}{
		{name: "WithFamily", header: "Bearer " + withFamily, wantStatus: http.StatusOK, wantFamily: true},
		{name: "WithoutFamily", header: "Bearer " + withoutFamily, wantStatus: http.StatusOK},
		{name: "MissingHeader", header: "", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "BadToken", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				called   bool
				gotID    uuid.UUID
				gotFound bool
			)

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotID, gotFound = family.IDFromContext(r.Context())
				assert.Equal(t, userID, family.FromContext(r.Context()).UserID())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			middleware.RequireAuth(jwtService)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)

			if !called {
				return
			}

			assert.Equal(t, tt.wantFamily, gotFound)

			if tt.wantFamily {
				assert.Equal(t, familyID, gotID)
			}
		})
	}
}
