// Package password wraps bcrypt hashing and verification behind a
// cost-validated Hasher.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used when no explicit factor is configured.
const DefaultCost = bcrypt.DefaultCost

// maxPasswordBytes is bcrypt's input ceiling; longer plaintexts are rejected
// rather than silently truncated.
const maxPasswordBytes = 72

// Config carries the tunable cost factor. Higher cost doubles the work per
// unit.
type Config struct {
	Cost int
}

// Hasher hashes and verifies passwords with a fixed cost. It is stateless
// and safe for concurrent use.
type Hasher struct {
	cost int
}

// New validates the cost factor and returns a Hasher.
func New(cfg Config) (*Hasher, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cfg.Cost}, nil
}

// Cost returns the configured cost factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash produces a salted bcrypt hash of the plaintext. It fails only on
// malformed input (empty or over the bcrypt byte limit).
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("password must not be empty")
	}
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("password exceeds %d bytes", maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash. It fails closed:
// a malformed stored hash is reported as a plain no-match, revealing nothing
// about whether the identifier or the password was wrong.
func (h *Hasher) Verify(plaintext, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	return false, nil
}

// NeedsUpgrade reports whether the stored hash was produced with a lower cost
// than currently configured.
func (h *Hasher) NeedsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}
	return cost < h.cost, nil
}
