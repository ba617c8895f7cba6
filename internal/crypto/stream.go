package crypto

import (
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// CipherKind selects the stream cipher used by a format version
type CipherKind uint8

const (
	CipherChaCha8 CipherKind = iota + 1
	CipherXChaCha20
)

func (k CipherKind) String() string {
	switch k {
	case CipherChaCha8:
		return "chacha8"
	case CipherXChaCha20:
		return "xchacha20"
	default:
		return fmt.Sprintf("cipher(%d)", uint8(k))
	}
}

// NonceSize returns the nonce length the cipher expects
func (k CipherKind) NonceSize() int {
	switch k {
	case CipherChaCha8:
		return ChaCha8NonceSize
	case CipherXChaCha20:
		return chacha20.NonceSizeX
	default:
		return 0
	}
}

// Stream is a length-preserving keystream cipher that can erase its state
type Stream interface {
	XORKeyStream(dst, src []byte)
	Wipe()
}

// NewStream creates the stream cipher for kind keyed with key and nonce
func NewStream(kind CipherKind, key, nonce []byte) (Stream, error) {
	switch kind {
	case CipherChaCha8:
		return NewChaCha8(key, nonce)
	case CipherXChaCha20:
		if len(key) != KeySize {
			return nil, fmt.Errorf("%w: %d", ErrKeySize, len(key))
		}
		if len(nonce) != chacha20.NonceSizeX {
			return nil, fmt.Errorf("%w: %d", ErrNonceSize, len(nonce))
		}
		c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
		if err != nil {
			return nil, fmt.Errorf("failed to create cipher: %w", err)
		}
		return &xchachaStream{c: c}, nil
	default:
		return nil, fmt.Errorf("unknown cipher: %s", kind)
	}
}

// Decrypt XORs src with the keystream for kind into dst and wipes the
// cipher state afterwards. dst must be at least len(src) bytes.
func Decrypt(kind CipherKind, key, nonce, dst, src []byte) error {
	s, err := NewStream(kind, key, nonce)
	if err != nil {
		return err
	}
	defer s.Wipe()

	s.XORKeyStream(dst, src)
	return nil
}

type xchachaStream struct {
	c *chacha20.Cipher
}

func (s *xchachaStream) XORKeyStream(dst, src []byte) {
	s.c.XORKeyStream(dst, src)
}

func (s *xchachaStream) Wipe() {
	*s.c = chacha20.Cipher{}
}
