package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/illarion/xmrkeys/internal/core"
	"github.com/illarion/xmrkeys/internal/crypto"
	"github.com/illarion/xmrkeys/internal/security"
)

// DecryptOptions controls the decrypt command
type DecryptOptions struct {
	Output     string // empty writes to stdout
	Force      bool
	Hex        bool
	UseKeyring bool
}

// Decrypt decrypts a wallet keys file and writes the plaintext
func Decrypt(ctx context.Context, walletPath string, opts DecryptOptions) {
	if err := runDecrypt(ctx, walletPath, opts, os.Stdout); err != nil {
		HandleError(err)
	}
}

func runDecrypt(ctx context.Context, walletPath string, opts DecryptOptions, stdout io.Writer) error {
	walletBytes, err := readWallet(walletPath)
	if err != nil {
		return err
	}

	coreOpts, err := coreOptions()
	if err != nil {
		return err
	}

	// Reject files we cannot read before asking for a password
	info, err := core.Inspect(walletBytes, coreOpts...)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"version": info.Version,
		"kdf":     info.KDF,
		"cipher":  info.Cipher,
	}).Debug("wallet header parsed")

	var out *security.OutputFile
	if opts.Output != "" {
		out, err = security.NewOutputFile(opts.Output)
		if err != nil {
			return err
		}
		defer out.Close()

		if err := out.CheckNotSame(walletPath); err != nil {
			return err
		}
	}

	plaintext, err := decryptWithPassword(ctx, walletBytes, opts.UseKeyring, coreOpts)
	if err != nil {
		return err
	}
	defer plaintext.Destroy()

	if out != nil {
		if err := writePlaintext(out, plaintext.Bytes(), opts); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Decrypted %s to %s\n", formatSize(int64(plaintext.Len())), out.Path())
		return nil
	}

	data := plaintext.Bytes()
	if opts.Hex {
		data = hexLine(data)
		defer crypto.ClearBytes(data)
	}
	if _, err := stdout.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writePlaintext(out *security.OutputFile, data []byte, opts DecryptOptions) error {
	if !opts.Hex {
		return out.Write(data, opts.Force)
	}

	encoded := hexLine(data)
	defer crypto.ClearBytes(encoded)
	return out.Write(encoded, opts.Force)
}

// hexLine hex-encodes data followed by a newline into a fresh buffer the
// caller must clear
func hexLine(data []byte) []byte {
	encoded := make([]byte, hex.EncodedLen(len(data))+1)
	hex.Encode(encoded, data)
	encoded[len(encoded)-1] = '\n'
	return encoded
}

// formatSize formats bytes into human-readable size
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
