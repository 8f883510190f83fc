package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/promptq/internal/mocks"
)

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestToken(t *testing.T) {
	t.Parallel()

	t.Run("valid key issues token", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{Token: "test-token"}
		handler := NewAuthHandler("$2a$10$hash", jwtService, &mocks.MockKeyVerifier{ShouldSucceed: true})

		rr := postJSON(t, handler.Token, "/auth/token", TokenRequest{APIKey: "operator-key"})

		require.Equal(t, http.StatusOK, rr.Code)
		var resp TokenResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "test-token", resp.AccessToken)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{Token: "test-token"}
		handler := NewAuthHandler("$2a$10$hash", jwtService, &mocks.MockKeyVerifier{ShouldSucceed: false})

		rr := postJSON(t, handler.Token, "/auth/token", TokenRequest{APIKey: "wrong-key"})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing key fails validation", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{Token: "test-token"}
		handler := NewAuthHandler("$2a$10$hash", jwtService, &mocks.MockKeyVerifier{ShouldSucceed: true})

		rr := postJSON(t, handler.Token, "/auth/token", TokenRequest{})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{Token: "test-token"}
		handler := NewAuthHandler("$2a$10$hash", jwtService, &mocks.MockKeyVerifier{ShouldSucceed: true})

		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader([]byte("{not json")))
		rr := httptest.NewRecorder()
		handler.Token(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("token generation failure is internal error", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{Err: errors.New("signing key unavailable")}
		handler := NewAuthHandler("$2a$10$hash", jwtService, &mocks.MockKeyVerifier{ShouldSucceed: true})

		rr := postJSON(t, handler.Token, "/auth/token", TokenRequest{APIKey: "operator-key"})

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
