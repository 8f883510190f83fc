package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
// The server is single-principal: tokens identify the operator who holds the
// API key, not individual users.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the operator.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context) (string, error)

	// ValidateToken validates the provided token string and extracts the
	// claims. Returns an error if validation fails (expired, invalid
	// signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
type Claims struct {
	// TokenType indicates the purpose of the token. Only "access" tokens
	// exist today; the field guards against future token kinds being
	// replayed here.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
