package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects longer input.
const maxPasswordBytes = 72

const passwordSymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

var ErrInvalidCredentials = errors.New("invalid credentials")

// PolicyError lists every password rule that was not met, in a fixed order.
type PolicyError struct {
	Rules []string
}

func (e *PolicyError) Error() string {
	return strings.Join(e.Rules, ". ")
}

func (s *Service) ValidatePassword(password string) error {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasNumber = true
		case strings.ContainsRune(passwordSymbols, c):
			hasSpecial = true
		}
	}

	var rules []string
	if utf8.RuneCountInString(password) < s.config.Auth.MinLength {
		rules = append(rules, fmt.Sprintf("Password must be at least %d characters long", s.config.Auth.MinLength))
	}
	if len(password) > maxPasswordBytes {
		rules = append(rules, fmt.Sprintf("Password must be at most %d bytes long", maxPasswordBytes))
	}
	if !hasUpper {
		rules = append(rules, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		rules = append(rules, "Password must contain at least one lowercase letter")
	}
	if !hasNumber {
		rules = append(rules, "Password must contain at least one numeric character")
	}
	if !hasSpecial {
		rules = append(rules, "Password must contain at least one special character")
	}

	if len(rules) > 0 {
		s.logger.Debug("password rejected by policy", zap.Int("violations", len(rules)))
		return &PolicyError{Rules: rules}
	}
	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
