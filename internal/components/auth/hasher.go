package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

type (
	// PasswordHasher provides one-way password hashing and verification.
	PasswordHasher interface {
		// Hash produces a salted digest. The same plaintext yields a
		// different digest on every call.
		Hash(password string) (string, error)

		// Verify reports whether password produced digest. The comparison
		// runs in constant time.
		Verify(password, digest string) bool
	}

	// BcryptHasher implements PasswordHasher using bcrypt.
	BcryptHasher struct {
		cost int
	}
)

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
