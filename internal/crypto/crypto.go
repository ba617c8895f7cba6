package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
)

const (
	KeySize = 32 // Derived key size for every format version
	TagSize = 32 // Keccak-256 digest size
)

var (
	ErrAuthFailed = errors.New("wrong password or corrupted wallet file")
	ErrAllocation = errors.New("allocation failure")
	ErrKeySize    = errors.New("invalid key size")
	ErrNonceSize  = errors.New("invalid nonce size")

	ErrInvalidParams = errors.New("invalid key derivation parameters")
)

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	memguard.WipeBytes(b)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
