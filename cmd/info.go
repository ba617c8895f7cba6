package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/illarion/xmrkeys/internal/core"
	"github.com/illarion/xmrkeys/internal/keyring"
	"github.com/illarion/xmrkeys/internal/storage"
)

// Info prints the header of a wallet keys file. No password is needed.
func Info(walletPath string) {
	if err := runInfo(walletPath, os.Stdout); err != nil {
		HandleError(err)
	}
}

func runInfo(walletPath string, w io.Writer) error {
	walletBytes, err := readWallet(walletPath)
	if err != nil {
		return err
	}

	opts, err := coreOptions()
	if err != nil {
		return err
	}

	info, err := core.Inspect(walletBytes, opts...)
	if err != nil {
		return err
	}

	walletID := storage.Fingerprint(walletBytes)

	fmt.Fprintf(w, "File:        %s\n", walletPath)
	fmt.Fprintf(w, "Fingerprint: %s\n", walletID)
	fmt.Fprintf(w, "Version:     %d\n", info.Version)
	fmt.Fprintf(w, "KDF:         %s\n", info.KDF)
	fmt.Fprintf(w, "Cipher:      %s\n", info.Cipher)
	fmt.Fprintf(w, "Tag:         %s\n", info.TagScope)
	fmt.Fprintf(w, "Header:      %d bytes\n", info.HeaderLen)
	fmt.Fprintf(w, "Ciphertext:  %s\n", formatSize(int64(info.CiphertextLen)))

	if keyring.HasPassword(walletID) {
		fmt.Fprintln(w, "Keyring:     password stored")
	} else {
		fmt.Fprintln(w, "Keyring:     not stored")
	}
	return nil
}
