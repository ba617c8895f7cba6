package core

import (
	"errors"

	"github.com/illarion/xmrkeys/internal/crypto"
	"github.com/illarion/xmrkeys/internal/format"
)

var (
	// Structural errors: the input is not a wallet keys file we can read
	ErrTooShort           = format.ErrTooShort
	ErrBadMagic           = format.ErrBadMagic
	ErrUnsupportedVersion = format.ErrUnsupportedVersion
	ErrBadKDFParams       = format.ErrBadKDFParams

	// ErrAllocation is fatal for the call that hit it
	ErrAllocation = crypto.ErrAllocation

	// ErrAuthFailed covers both a wrong password and a corrupted file
	ErrAuthFailed = crypto.ErrAuthFailed

	ErrNoCandidateMatched = errors.New("no candidate password matched")
)

// IsStructural reports whether err means the input is not a readable wallet
// keys file, as opposed to a wrong password or a resource failure
func IsStructural(err error) bool {
	return errors.Is(err, ErrTooShort) ||
		errors.Is(err, ErrBadMagic) ||
		errors.Is(err, ErrUnsupportedVersion) ||
		errors.Is(err, ErrBadKDFParams)
}
