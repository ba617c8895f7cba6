package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/illarion/xmrkeys/internal/storage"
)

// Sessions lists, clears or compacts stored recovery sessions
func Sessions(action string, walletPath string) {
	statePath, err := StatePath()
	if err != nil {
		HandleError(err)
	}

	store, err := storage.Open(statePath)
	if err != nil {
		HandleError(err)
	}
	defer store.Close()

	switch action {
	case "list":
		err = sessionsList(store, os.Stdout)
	case "clear":
		err = sessionsClear(store, walletPath, os.Stdout)
	case "compact":
		err = sessionsCompact(store, os.Stdout)
	default:
		err = fmt.Errorf("unknown sessions action: %s", action)
	}
	if err != nil {
		store.Close()
		HandleError(err)
	}
}

func sessionsList(store *storage.Storage, w io.Writer) error {
	list, err := store.ListSessions()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No recovery sessions")
		return nil
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Updated.After(list[j].Updated)
	})

	for _, s := range list {
		state := fmt.Sprintf("%d/%d tried", s.Done, s.Total)
		if s.Found >= 0 {
			state = fmt.Sprintf("found on line %d", s.Found+1)
		} else if s.Done >= s.Total {
			state = "exhausted"
		}
		fmt.Fprintf(w, "%s  %-20s  %s\n", shortID(s.Wallet), state, s.Updated.Format("2006-01-02 15:04"))
	}
	return nil
}

// sessionsClear removes the session for one wallet, or all sessions when
// walletPath is empty
func sessionsClear(store *storage.Storage, walletPath string, w io.Writer) error {
	if walletPath != "" {
		walletBytes, err := readWallet(walletPath)
		if err != nil {
			return err
		}
		if err := store.DeleteSession(storage.Fingerprint(walletBytes)); err != nil {
			if errors.Is(err, storage.ErrSessionNotFound) {
				fmt.Fprintln(w, "No session for this wallet")
				return nil
			}
			return err
		}
		fmt.Fprintln(w, "Session removed")
		return nil
	}

	list, err := store.ListSessions()
	if err != nil {
		return err
	}
	for _, s := range list {
		if err := store.DeleteSession(s.Wallet); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "Removed %d session(s)\n", len(list))
	return nil
}

func sessionsCompact(store *storage.Storage, w io.Writer) error {
	info, err := os.Stat(store.Path())
	if err != nil {
		return fmt.Errorf("failed to stat session store: %w", err)
	}
	sizeBefore := info.Size()

	if err := store.Compact(); err != nil {
		return fmt.Errorf("failed to compact: %w", err)
	}

	info, err = os.Stat(store.Path())
	if err != nil {
		return fmt.Errorf("failed to stat session store: %w", err)
	}
	sizeAfter := info.Size()

	saved := sizeBefore - sizeAfter
	if saved > 0 {
		fmt.Fprintf(w, "Compacted: %s -> %s (saved %s)\n",
			formatSize(sizeBefore), formatSize(sizeAfter), formatSize(saved))
	} else {
		fmt.Fprintf(w, "Session store already compact (%s)\n", formatSize(sizeAfter))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}
