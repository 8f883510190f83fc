package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/promptq/internal/mocks"
	"github.com/phrazzld/promptq/internal/service/auth"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	testCases := []struct {
		name       string
		header     string
		jwtService *mocks.MockJWTService
		wantStatus int
	}{
		{
			name:       "valid token passes through",
			header:     "Bearer good-token",
			jwtService: &mocks.MockJWTService{Claims: &auth.Claims{TokenType: "access", Subject: "operator"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			jwtService: &mocks.MockJWTService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			header:     "good-token",
			jwtService: &mocks.MockJWTService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic good-token",
			jwtService: &mocks.MockJWTService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			header:     "Bearer stale-token",
			jwtService: &mocks.MockJWTService{ValidateErr: auth.ErrExpiredToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer bad-token",
			jwtService: &mocks.MockJWTService{ValidateErr: auth.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			middleware := NewAuthMiddleware(tc.jwtService)
			handler := middleware.Authenticate(okHandler)

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}
