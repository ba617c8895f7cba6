package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illarion/xmrkeys/internal/core"
	"github.com/illarion/xmrkeys/internal/crypto"
	"github.com/illarion/xmrkeys/internal/keyring"
	"github.com/illarion/xmrkeys/internal/secmem"
	"github.com/illarion/xmrkeys/internal/storage"
)

// PasswordSource records where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

func (s PasswordSource) String() string {
	switch s {
	case SourceEnv:
		return "environment"
	case SourceKeyring:
		return "keyring"
	case SourcePrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// promptPassword is replaced in tests
var promptPassword = core.ReadPassword

// GetPassword retrieves the password for a wallet from the environment, the
// keyring or the terminal, in that order.
// The caller is responsible for calling crypto.ClearBytes on the returned password
func GetPassword(walletID string, useKeyring bool) ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}

	if useKeyring {
		password, err := keyring.GetPassword(walletID)
		if err == nil {
			return password, SourceKeyring, nil
		}
		if !keyring.IsNotFound(err) {
			log.WithError(err).Debug("keyring lookup failed")
		}
	}

	password, err := promptPassword("Enter wallet password: ")
	if err != nil {
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// decryptWithPassword resolves the password and decrypts walletBytes. A stale
// keyring entry falls back to prompting once.
func decryptWithPassword(ctx context.Context, walletBytes []byte, useKeyring bool, opts []core.Option) (*core.Plaintext, error) {
	walletID := storage.Fingerprint(walletBytes)

	password, source, err := GetPassword(walletID, useKeyring)
	if err != nil {
		return nil, err
	}
	defer func() { crypto.ClearBytes(password) }()

	log.WithField("source", source.String()).Debug("password resolved")

	plaintext, err := core.DecryptWallet(ctx, walletBytes, password, opts...)
	if errors.Is(err, core.ErrAuthFailed) && source == SourceKeyring {
		log.Warn("password from keyring did not decrypt the wallet")
		crypto.ClearBytes(password)

		password, err = promptPassword("Enter wallet password: ")
		if err != nil {
			return nil, err
		}
		source = SourcePrompt
		plaintext, err = core.DecryptWallet(ctx, walletBytes, password, opts...)
	}
	if err != nil {
		return nil, err
	}

	if source == SourcePrompt && useKeyring {
		OfferToSavePassword(walletID, password)
	}
	return plaintext, nil
}

// OfferToSavePassword asks whether to store a verified password in the
// keyring. Nothing is asked unless stdin is a terminal.
func OfferToSavePassword(walletID string, password []byte) {
	if !term.IsTerminal(int(os.Stdin.Fd())) || keyring.HasPassword(walletID) {
		return
	}

	fmt.Fprint(os.Stderr, "Save password to keyring? [y/N]: ")
	var answer string
	if _, err := fmt.Fscanln(os.Stdin, &answer); err != nil {
		return
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return
	}

	if err := keyring.SavePassword(walletID, password); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "Password saved to keyring")
}

// readWallet loads a wallet keys file
func readWallet(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}
	return data, nil
}

// ErrorMessage maps an error to the message shown to the user
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, core.ErrAuthFailed):
		return "wrong password or corrupted wallet file"
	case errors.Is(err, core.ErrTooShort):
		return "not a wallet keys file (too short)"
	case errors.Is(err, core.ErrBadMagic):
		return "not a wallet keys file (bad magic)"
	case errors.Is(err, core.ErrUnsupportedVersion):
		return "unsupported wallet keys file version"
	case errors.Is(err, core.ErrBadKDFParams):
		return "wallet key derivation parameters are out of range"
	case errors.Is(err, core.ErrAllocation):
		return "failed to allocate secure memory"
	case errors.Is(err, core.ErrNoCandidateMatched):
		return "no candidate password matched"
	default:
		return err.Error()
	}
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, core.ErrAuthFailed), errors.Is(err, core.ErrNoCandidateMatched):
		return 2
	case core.IsStructural(err):
		return 3
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

// HandleError prints err and exits
func HandleError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", ErrorMessage(err))
	Exit(ExitCode(err))
}

// Exit wipes locked memory and terminates the process
func Exit(code int) {
	secmem.Purge()
	os.Exit(code)
}
