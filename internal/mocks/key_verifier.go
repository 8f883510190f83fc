package mocks

import (
	"github.com/phrazzld/promptq/internal/service/auth"
)

// MockKeyVerifier implements auth.KeyVerifier for testing
type MockKeyVerifier struct {
	// ShouldSucceed determines whether Compare reports a match
	ShouldSucceed bool

	// CompareFn allows test cases to mock the Compare behavior
	CompareFn func(hashedKey, key string) error
}

// Compare implements the auth.KeyVerifier interface
func (m *MockKeyVerifier) Compare(hashedKey, key string) error {
	if m.CompareFn != nil {
		return m.CompareFn(hashedKey, key)
	}
	if m.ShouldSucceed {
		return nil
	}
	return auth.ErrInvalidAPIKey
}

// Ensure MockKeyVerifier satisfies the interface
var _ auth.KeyVerifier = (*MockKeyVerifier)(nil)
