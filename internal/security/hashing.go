package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher derives and checks the bcrypt digests kept in accounts.password_hash.
type Hasher struct {
	Cost int
}

// NewHasher clamps cost into bcrypt's accepted range; zero or negative selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	return &Hasher{Cost: clampCost(cost)}
}

func clampCost(cost int) int {
	switch {
	case cost <= 0:
		return bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return cost
}

// Hash returns the encoded digest for a new or temporary account password.
// Passwords over 72 bytes fail with bcrypt.ErrPasswordTooLong.
func (h *Hasher) Hash(password []byte) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Compare returns nil only when password produced hash.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// Matches reports whether password matches hash. An account with no hash yet never matches.
func (h *Hasher) Matches(hash, password string) bool {
	if hash == "" {
		return false
	}
	return h.Compare(hash, []byte(password)) == nil
}
