package crypto

import (
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// Version 1 scrypt profile. The salt is a fixed domain separator because the
// legacy format carries no per-file salt.
const (
	LegacyScryptN = 1 << 14
	LegacyScryptR = 8
	LegacyScryptP = 1
)

// LegacySalt is the domain separator used as scrypt salt by version 1 files.
var LegacySalt = []byte("xmrkeys/v1")

// KeyDeriver turns a password into a KeySize key.
type KeyDeriver interface {
	// DeriveKey writes the derived key into out, which must be KeySize bytes.
	DeriveKey(password, out []byte) error
	String() string
}

// ScryptParams holds the scrypt cost parameters and salt
type ScryptParams struct {
	Salt []byte
	N    int
	R    int
	P    int
}

// LegacyScrypt returns the version 1 key derivation profile
func LegacyScrypt() ScryptParams {
	return ScryptParams{
		Salt: LegacySalt,
		N:    LegacyScryptN,
		R:    LegacyScryptR,
		P:    LegacyScryptP,
	}
}

// DeriveKey derives an encryption key from a password
func (p ScryptParams) DeriveKey(password, out []byte) error {
	if len(out) != KeySize {
		return fmt.Errorf("%w: %d", ErrKeySize, len(out))
	}

	key, err := scrypt.Key(password, p.Salt, p.N, p.R, p.P, KeySize)
	if err != nil {
		return fmt.Errorf("%w: scrypt: %v", ErrAllocation, err)
	}
	copy(out, key)
	ClearBytes(key)

	return nil
}

func (p ScryptParams) String() string {
	return fmt.Sprintf("scrypt(N=%d, r=%d, p=%d)", p.N, p.R, p.P)
}

// Argon2Params contains Argon2id parameters for key derivation
type Argon2Params struct {
	Salt      []byte
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DeriveKey derives an encryption key from a password
func (p Argon2Params) DeriveKey(password, out []byte) error {
	if len(out) != KeySize {
		return fmt.Errorf("%w: %d", ErrKeySize, len(out))
	}
	// argon2 panics on a zero thread count
	if p.Threads == 0 || p.Time == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, p)
	}

	key := argon2.IDKey(password, p.Salt, p.Time, p.MemoryKiB, p.Threads, KeySize)
	copy(out, key)
	ClearBytes(key)

	return nil
}

func (p Argon2Params) String() string {
	return fmt.Sprintf("argon2id(t=%d, m=%dKiB, p=%d)", p.Time, p.MemoryKiB, p.Threads)
}
