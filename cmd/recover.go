package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/illarion/xmrkeys/internal/core"
	"github.com/illarion/xmrkeys/internal/crypto"
	"github.com/illarion/xmrkeys/internal/keyring"
	"github.com/illarion/xmrkeys/internal/storage"
)

// RecoverOptions controls the recover command
type RecoverOptions struct {
	Workers     int
	Restart     bool
	SaveKeyring bool
}

// Recover searches a candidate list for the wallet password
func Recover(ctx context.Context, walletPath, candidatesPath string, opts RecoverOptions) {
	statePath, err := StatePath()
	if err != nil {
		HandleError(err)
	}
	if _, err := runRecover(ctx, walletPath, candidatesPath, statePath, opts, os.Stdout); err != nil {
		HandleError(err)
	}
}

// runRecover returns the 1-based line number of the matching candidate
func runRecover(ctx context.Context, walletPath, candidatesPath, statePath string, opts RecoverOptions, w io.Writer) (int, error) {
	walletBytes, err := readWallet(walletPath)
	if err != nil {
		return 0, err
	}

	coreOpts, err := coreOptions()
	if err != nil {
		return 0, err
	}

	// Structural problems are reported before the candidate list is touched
	if _, err := core.Inspect(walletBytes, coreOpts...); err != nil {
		return 0, err
	}

	candData, err := os.ReadFile(candidatesPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read candidates: %w", err)
	}
	defer crypto.ClearBytes(candData)

	candidates := SplitCandidates(candData)
	if len(candidates) == 0 {
		return 0, fmt.Errorf("candidate list is empty: %s", candidatesPath)
	}

	walletID := storage.Fingerprint(walletBytes)
	listID := storage.Fingerprint(candData)

	store, err := storage.Open(statePath)
	if err != nil {
		log.WithError(err).Warn("session store unavailable, progress will not be saved")
		store = nil
	} else {
		defer store.Close()
	}

	start, err := resumePoint(store, walletID, listID, len(candidates), opts.Restart)
	if err != nil {
		return 0, err
	}
	if start > 0 {
		fmt.Fprintf(os.Stderr, "Resuming at candidate %d of %d\n", start+1, len(candidates))
	}

	cfg := core.RecoverConfig{
		Workers: opts.Workers,
		Start:   start,
		Options: coreOpts,
	}
	if store != nil {
		cfg.Progress = func(done int) {
			if err := store.UpdateProgress(walletID, done); err != nil {
				log.WithError(err).Debug("failed to save progress")
			}
		}
	}

	log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"start":      start,
		"workers":    opts.Workers,
	}).Debug("starting recovery")

	result, err := core.Recover(ctx, walletBytes, candidates, cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) && store != nil {
			fmt.Fprintln(os.Stderr, "Interrupted; rerun the same command to resume")
		}
		return 0, err
	}
	defer result.Plaintext.Destroy()

	line := result.Index + 1
	if store != nil {
		if err := store.MarkFound(walletID, result.Index); err != nil {
			log.WithError(err).Warn("failed to record match")
		}
	}

	fmt.Fprintf(w, "Password found on line %d of %s\n", line, candidatesPath)

	if opts.SaveKeyring {
		if err := keyring.SavePassword(walletID, candidates[result.Index]); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save to keyring: %s\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "Password saved to keyring")
		}
	}

	return line, nil
}

// resumePoint returns the first candidate index to try. A recorded match is
// retried first so that it is verified again.
func resumePoint(store *storage.Storage, walletID, listID string, total int, restart bool) (int, error) {
	if store == nil {
		return 0, nil
	}

	session, err := store.GetSession(walletID)
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
	case err != nil:
		return 0, fmt.Errorf("failed to load session: %w", err)
	case !restart && session.Matches(listID) && session.Total == total:
		if session.Found >= 0 {
			return session.Found, nil
		}
		if session.Done >= total {
			fmt.Fprintf(os.Stderr, "All %d candidates were already tried; use --restart to try again\n", total)
			return 0, core.ErrNoCandidateMatched
		}
		return session.Done, nil
	}

	if err := store.PutSession(storage.NewSession(walletID, listID, total)); err != nil {
		return 0, fmt.Errorf("failed to save session: %w", err)
	}
	return 0, nil
}

// SplitCandidates splits a newline-separated password list. Each line is one
// candidate, empty lines included; a trailing CR is stripped and a final
// newline does not start another candidate. The returned slices alias data.
func SplitCandidates(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}

	lines := bytes.Split(data, []byte{'\n'})
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = bytes.TrimSuffix(line, []byte{'\r'})
	}
	return lines
}
