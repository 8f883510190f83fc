package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/promptq/internal/api/shared"
	"github.com/phrazzld/promptq/internal/service/auth"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	apiKeyHash  string
	jwtService  auth.JWTService
	keyVerifier auth.KeyVerifier
	validator   *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// apiKeyHash is the bcrypt hash of the operator API key.
func NewAuthHandler(
	apiKeyHash string,
	jwtService auth.JWTService,
	keyVerifier auth.KeyVerifier,
) *AuthHandler {
	return &AuthHandler{
		apiKeyHash:  apiKeyHash,
		jwtService:  jwtService,
		keyVerifier: keyVerifier,
		validator:   validator.New(),
	}
}

// Token handles the /auth/token endpoint. It exchanges the operator API key
// for a short-lived access token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest

	// Parse request
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	// Verify the API key against the configured hash
	if err := h.keyVerifier.Compare(h.apiKeyHash, req.APIKey); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Generate token
	token, err := h.jwtService.GenerateToken(r.Context())
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
	})
}
