package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum required password length for accounts
const MinPasswordLength = 8

// BcryptCost is the cost factor for bcrypt hashing. Tests lower it to bcrypt.MinCost.
var BcryptCost = 12

// ErrInvalidPassword is returned when a password does not match its hash
var ErrInvalidPassword = errors.New("invalid password")

// Account password rules. Their messages are shown to the admin as is.
var (
	ErrPasswordTooShort       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordNoLetter       = errors.New("password must contain at least one letter")
	ErrPasswordNoDigit        = errors.New("password must contain at least one number")
	ErrPasswordMatchesAccount = errors.New("password must not contain the account name or email")
)

// HashPassword hashes a password with bcrypt at BcryptCost
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidPassword
	default:
		return fmt.Errorf("failed to check password: %w", err)
	}
}

// ValidateAccountPassword applies the rules for accounts an admin creates:
// a minimum length, a letter and a digit, and nothing guessable from the
// account itself.
func ValidateAccountPassword(password, name, email string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if !strings.ContainsFunc(password, unicode.IsLetter) {
		return ErrPasswordNoLetter
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return ErrPasswordNoDigit
	}

	lower := strings.ToLower(password)
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	for _, part := range append(strings.Fields(strings.ToLower(name)), local) {
		// short fragments like initials match too many passwords
		if len([]rune(part)) >= 3 && strings.Contains(lower, part) {
			return ErrPasswordMatchesAccount
		}
	}
	return nil
}
