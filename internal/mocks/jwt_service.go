package mocks

import (
	"context"

	"github.com/phrazzld/promptq/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing
type MockJWTService struct {
	// GenerateTokenFn allows test cases to mock the GenerateToken behavior
	GenerateTokenFn func(ctx context.Context) (string, error)

	// ValidateTokenFn allows test cases to mock the ValidateToken behavior
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token       string
	Err         error
	ValidateErr error
	Claims      *auth.Claims
}

// GenerateToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateToken(ctx context.Context) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx)
	}
	return m.Token, m.Err
}

// ValidateToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	if m.Claims != nil {
		return m.Claims, nil
	}
	return &auth.Claims{TokenType: "access", Subject: "operator"}, nil
}

// Ensure MockJWTService satisfies the interface
var _ auth.JWTService = (*MockJWTService)(nil)
