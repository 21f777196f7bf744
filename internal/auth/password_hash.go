package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordTooShort = errors.New("password is too short")

// PasswordHasher handles password hashing and verification. All hashes are
// bcrypt; the cost and minimum length come from config.
type PasswordHasher struct {
	cost      int
	minLength int
}

func NewPasswordHasher(cost, minLength int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if minLength <= 0 {
		minLength = 8
	}
	return &PasswordHasher{cost: cost, minLength: minLength}
}

// HashPassword validates length and returns a bcrypt hash.
func (h *PasswordHasher) HashPassword(password string) (string, error) {
	if len(password) < h.minLength {
		return "", fmt.Errorf("%w: need at least %d characters", ErrPasswordTooShort, h.minLength)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a password matches the stored hash.
func (h *PasswordHasher) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
