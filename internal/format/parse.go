package format

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/illarion/xmrkeys/internal/crypto"
)

var (
	ErrTooShort           = errors.New("wallet file too short")
	ErrBadMagic           = errors.New("not a wallet keys file")
	ErrUnsupportedVersion = errors.New("unsupported wallet file version")
	ErrBadKDFParams       = crypto.ErrInvalidParams
)

// Parse splits raw into header fields, ciphertext and tag
func Parse(raw []byte, limits Limits) (*WalletFile, error) {
	if len(raw) < MinKnownLen {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTooShort, len(raw), MinKnownLen)
	}
	if string(raw[:MagicSize]) != Magic {
		return nil, ErrBadMagic
	}

	version := Version(raw[MagicSize])
	variant, ok := Lookup(version)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if len(raw) < variant.MinFileLen() {
		return nil, fmt.Errorf("%w: %d bytes, version %d needs at least %d",
			ErrTooShort, len(raw), version, variant.MinFileLen())
	}

	header := raw[PrefixSize:variant.HeaderLen]
	wf := &WalletFile{
		Variant:    variant,
		Ciphertext: raw[variant.HeaderLen : len(raw)-TagSize],
		Tag:        raw[len(raw)-TagSize:],
	}

	switch variant.KDF {
	case KDFScrypt:
		wf.Nonce = header
		wf.KDF = crypto.LegacyScrypt()
	case KDFArgon2id:
		params, nonce, err := parseArgon2Header(header, limits)
		if err != nil {
			return nil, err
		}
		wf.Nonce = nonce
		wf.KDF = params
	}

	return wf, nil
}

// time(4) | memKiB(4) | threads(1) | salt(16) | nonce(24)
func parseArgon2Header(header []byte, limits Limits) (crypto.Argon2Params, []byte, error) {
	p := crypto.Argon2Params{
		Time:      binary.BigEndian.Uint32(header[0:4]),
		MemoryKiB: binary.BigEndian.Uint32(header[4:8]),
		Threads:   header[8],
		Salt:      header[9 : 9+Argon2SaltSize],
	}
	nonce := header[9+Argon2SaltSize:]

	switch {
	case p.Time == 0 || p.Time > limits.MaxArgon2Time:
		return p, nil, fmt.Errorf("%w: time %d", ErrBadKDFParams, p.Time)
	case p.Threads == 0 || p.Threads > limits.MaxArgon2Threads:
		return p, nil, fmt.Errorf("%w: threads %d", ErrBadKDFParams, p.Threads)
	case p.MemoryKiB < 8*uint32(p.Threads) || p.MemoryKiB > limits.MaxArgon2MemoryKiB:
		return p, nil, fmt.Errorf("%w: memory %d KiB", ErrBadKDFParams, p.MemoryKiB)
	}

	return p, nonce, nil
}
