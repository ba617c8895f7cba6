// Package wallettest builds wallet keys files for tests.
//
// xmrkeys only decrypts; these helpers produce fixtures following the same
// container rules so tests can check round trips without shipping binaries.
package wallettest

import (
	"encoding/binary"
	"fmt"

	"github.com/illarion/xmrkeys/internal/crypto"
	"github.com/illarion/xmrkeys/internal/format"
)

// FastArgon2 is a cheap Argon2id profile for version 2 fixtures
var FastArgon2 = crypto.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1}

// Options controls fixture generation. Zero values pick random nonces and
// salts and the FastArgon2 profile.
type Options struct {
	Version format.Version
	Nonce   []byte
	Salt    []byte
	Argon2  crypto.Argon2Params
}

// Seal encrypts plaintext under password into a complete wallet keys file
func Seal(plaintext, password []byte, opts Options) ([]byte, error) {
	if opts.Version == 0 {
		opts.Version = format.V1
	}
	variant, ok := format.Lookup(opts.Version)
	if !ok {
		return nil, fmt.Errorf("%w: %d", format.ErrUnsupportedVersion, opts.Version)
	}

	nonce := opts.Nonce
	if nonce == nil {
		var err error
		if nonce, err = crypto.GenerateRandom(variant.Cipher.NonceSize()); err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, variant.HeaderLen+len(plaintext)+format.TagSize)
	out = append(out, format.Magic...)
	out = append(out, byte(opts.Version))

	var kdf crypto.KeyDeriver
	switch variant.KDF {
	case format.KDFScrypt:
		kdf = crypto.LegacyScrypt()
	case format.KDFArgon2id:
		params := opts.Argon2
		if params.Time == 0 {
			params = FastArgon2
		}
		params.Salt = opts.Salt
		if params.Salt == nil {
			var err error
			if params.Salt, err = crypto.GenerateRandom(format.Argon2SaltSize); err != nil {
				return nil, err
			}
		}
		out = binary.BigEndian.AppendUint32(out, params.Time)
		out = binary.BigEndian.AppendUint32(out, params.MemoryKiB)
		out = append(out, params.Threads)
		out = append(out, params.Salt...)
		kdf = params
	}
	out = append(out, nonce...)

	key := make([]byte, crypto.KeySize)
	defer crypto.ClearBytes(key)
	if err := kdf.DeriveKey(password, key); err != nil {
		return nil, err
	}

	ciphertext := make([]byte, len(plaintext))
	if err := crypto.Decrypt(variant.Cipher, key, nonce, ciphertext, plaintext); err != nil {
		return nil, err
	}
	out = append(out, ciphertext...)

	tag, err := crypto.ComputeTag(variant.TagScope, plaintext, key)
	if err != nil {
		return nil, err
	}
	out = append(out, tag[:]...)

	return out, nil
}

// MustSeal is like Seal but panics on error
func MustSeal(plaintext, password []byte, opts Options) []byte {
	out, err := Seal(plaintext, password, opts)
	if err != nil {
		panic(err)
	}
	return out
}

// FixedPayload returns n bytes of deterministic test data
func FixedPayload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}
