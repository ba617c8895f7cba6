package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/illarion/xmrkeys/internal/core"
	"github.com/illarion/xmrkeys/internal/crypto"
	"github.com/illarion/xmrkeys/internal/keyring"
	"github.com/illarion/xmrkeys/internal/storage"
)

// KeyringSave verifies a password against the wallet and saves it to the OS keyring
func KeyringSave(ctx context.Context, walletPath string) {
	walletBytes, err := readWallet(walletPath)
	if err != nil {
		HandleError(err)
	}

	opts, err := coreOptions()
	if err != nil {
		HandleError(err)
	}

	// Prompt for password
	password, err := promptPassword("Enter wallet password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	if err := keyringSave(ctx, walletBytes, password, opts, os.Stdout); err != nil {
		HandleError(err)
	}
}

func keyringSave(ctx context.Context, walletBytes, password []byte, opts []core.Option, w io.Writer) error {
	// Verify password is correct
	plaintext, err := core.DecryptWallet(ctx, walletBytes, password, opts...)
	if err != nil {
		return err
	}
	plaintext.Destroy()

	if err := keyring.SavePassword(storage.Fingerprint(walletBytes), password); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}

	fmt.Fprintln(w, "Password saved to keyring")
	return nil
}

// KeyringDelete removes the wallet password from the OS keyring
func KeyringDelete(walletPath string) {
	walletBytes, err := readWallet(walletPath)
	if err != nil {
		HandleError(err)
	}
	keyringDelete(storage.Fingerprint(walletBytes), os.Stdout)
}

func keyringDelete(walletID string, w io.Writer) {
	if err := keyring.DeletePassword(walletID); err != nil {
		if !keyring.IsNotFound(err) {
			log.WithError(err).Debug("keyring delete failed")
		}
		fmt.Fprintln(w, "No password stored in keyring")
		return
	}

	fmt.Fprintln(w, "Password removed from keyring")
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus(walletPath string) {
	walletBytes, err := readWallet(walletPath)
	if err != nil {
		HandleError(err)
	}
	keyringStatus(storage.Fingerprint(walletBytes), os.Stdout)
}

func keyringStatus(walletID string, w io.Writer) {
	if keyring.HasPassword(walletID) {
		fmt.Fprintln(w, "Password: stored in keyring")
	} else {
		fmt.Fprintln(w, "Password: not stored")
	}
}
