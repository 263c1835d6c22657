package session

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"luxepos/internal/domain"
)

// MockAuthenticator accepts any non-empty email and password.
type MockAuthenticator struct{}

func (MockAuthenticator) Authenticate(_ context.Context, email, password string) (domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	return domain.User{Email: email, Name: DisplayName(email)}, nil
}

// CredentialAuthenticator checks passwords against bcrypt hashes keyed by
// lower-cased email.
type CredentialAuthenticator struct {
	hashes map[string]string
}

// NewCredentialAuthenticator parses "email:bcrypt-hash" entries.
func NewCredentialAuthenticator(entries []string) (*CredentialAuthenticator, error) {
	hashes := make(map[string]string, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		email, hash, ok := strings.Cut(entry, ":")
		email = strings.ToLower(strings.TrimSpace(email))
		hash = strings.TrimSpace(hash)
		if !ok || email == "" || !isPasswordHash(hash) {
			return nil, fmt.Errorf("credential entry for %q must be email:bcrypt-hash", email)
		}
		hashes[email] = hash
	}
	if len(hashes) == 0 {
		return nil, fmt.Errorf("credentials auth mode needs at least one entry")
	}
	return &CredentialAuthenticator{hashes: hashes}, nil
}

func (a *CredentialAuthenticator) Authenticate(_ context.Context, email, password string) (domain.User, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	hash, ok := a.hashes[key]
	if !ok || !verifyPassword(hash, password) {
		return domain.User{}, ErrInvalidCredentials
	}
	return domain.User{Email: key, Name: DisplayName(key)}, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
