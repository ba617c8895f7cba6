package crypto

import (
	"fmt"

	"golang.org/x/crypto/sha3"
)

// TagScope selects what the authenticity tag covers
type TagScope uint8

const (
	TagPlaintext    TagScope = iota + 1 // Keccak-256(plaintext)
	TagPlaintextKey                     // Keccak-256(plaintext || key)
)

func (s TagScope) String() string {
	switch s {
	case TagPlaintext:
		return "keccak256(plaintext)"
	case TagPlaintextKey:
		return "keccak256(plaintext||key)"
	default:
		return fmt.Sprintf("tag(%d)", uint8(s))
	}
}

// ComputeTag computes the authenticity tag of plaintext under scope.
// The caller should clear the returned array once done with it.
func ComputeTag(scope TagScope, plaintext, key []byte) ([TagSize]byte, error) {
	var tag [TagSize]byte

	h := sha3.NewLegacyKeccak256()
	switch scope {
	case TagPlaintext:
		h.Write(plaintext)
	case TagPlaintextKey:
		h.Write(plaintext)
		h.Write(key)
	default:
		return tag, fmt.Errorf("unknown tag scope: %s", scope)
	}
	h.Sum(tag[:0])
	h.Reset()

	return tag, nil
}

// VerifyTag recomputes the tag for plaintext and compares it with tag in
// constant time. Any mismatch yields ErrAuthFailed.
func VerifyTag(scope TagScope, plaintext, key, tag []byte) error {
	expected, err := ComputeTag(scope, plaintext, key)
	defer ClearBytes(expected[:])
	if err != nil {
		return err
	}

	if len(tag) != TagSize {
		return ErrAuthFailed
	}
	if !ConstantTimeCompare(expected[:], tag) {
		return ErrAuthFailed
	}

	return nil
}
