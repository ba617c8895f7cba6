package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.PutSession(NewSession("w1", "c1", 10)); err != nil {
		t.Fatalf("Failed to store session: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	session, err := db.GetSession("w1")
	if err != nil {
		t.Fatalf("Session lost after reopen: %v", err)
	}
	if session.Total != 10 || session.Found != -1 {
		t.Errorf("Unexpected session: %+v", session)
	}
}

func TestSessionProgress(t *testing.T) {
	db := openTest(t)

	if err := db.PutSession(NewSession("wallet", "list", 100)); err != nil {
		t.Fatalf("Failed to store session: %v", err)
	}

	for _, done := range []int{10, 40, 25} {
		if err := db.UpdateProgress("wallet", done); err != nil {
			t.Fatalf("Failed to update progress: %v", err)
		}
	}

	session, err := db.GetSession("wallet")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if session.Done != 40 {
		t.Errorf("Done = %d, want 40 (progress must not go backwards)", session.Done)
	}
	if session.Complete() {
		t.Error("Session should not be complete")
	}
	if !session.Matches("list") || session.Matches("other") {
		t.Error("Matches() returned wrong result")
	}

	if err := db.MarkFound("wallet", 42); err != nil {
		t.Fatalf("Failed to mark found: %v", err)
	}
	session, _ = db.GetSession("wallet")
	if session.Found != 42 || !session.Complete() {
		t.Errorf("Unexpected session after MarkFound: %+v", session)
	}
}

func TestSessionNotFound(t *testing.T) {
	db := openTest(t)

	if _, err := db.GetSession("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession: expected ErrSessionNotFound, got %v", err)
	}
	if err := db.UpdateProgress("missing", 1); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("UpdateProgress: expected ErrSessionNotFound, got %v", err)
	}
	if err := db.DeleteSession("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("DeleteSession: expected ErrSessionNotFound, got %v", err)
	}
}

func TestListAndDeleteSessions(t *testing.T) {
	db := openTest(t)

	for _, w := range []string{"a", "b", "c"} {
		if err := db.PutSession(NewSession(w, "list", 5)); err != nil {
			t.Fatalf("Failed to store session %s: %v", w, err)
		}
	}

	if err := db.DeleteSession("b"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	list, err := db.ListSessions()
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(list))
	}
	for _, s := range list {
		if s.Wallet == "b" {
			t.Error("Deleted session still listed")
		}
	}
}

func TestCompact(t *testing.T) {
	db := openTest(t)

	for i := 0; i < 50; i++ {
		w := Fingerprint([]byte{byte(i)})
		if err := db.PutSession(NewSession(w, "list", 1000)); err != nil {
			t.Fatalf("Failed to store session: %v", err)
		}
		if i%2 == 0 {
			if err := db.DeleteSession(w); err != nil {
				t.Fatalf("Failed to delete session: %v", err)
			}
		}
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	list, err := db.ListSessions()
	if err != nil {
		t.Fatalf("Failed to list sessions after compact: %v", err)
	}
	if len(list) != 25 {
		t.Errorf("Expected 25 sessions after compact, got %d", len(list))
	}

	if _, err := os.Stat(db.Path() + ".compact"); !os.IsNotExist(err) {
		t.Errorf("Temporary compact file left behind: %v", err)
	}

	// The reopened database is writable
	if err := db.UpdateProgress(list[0].Wallet, 10); err != nil {
		t.Errorf("UpdateProgress after compact failed: %v", err)
	}
}

func TestCompact_ReopenKeepsLockTimeout(t *testing.T) {
	db := openTest(t)
	if err := db.PutSession(NewSession("wallet", "list", 3)); err != nil {
		t.Fatalf("Failed to store session: %v", err)
	}
	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	// The compacted file is locked by db; a second open must give up
	// instead of blocking forever
	done := make(chan error, 1)
	go func() {
		other, err := Open(db.Path())
		if err == nil {
			other.Close()
		}
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, bolt.ErrTimeout) {
			t.Errorf("Expected ErrTimeout, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Open on a locked database did not time out")
	}

	if _, err := db.GetSession("wallet"); err != nil {
		t.Errorf("GetSession after compact failed: %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("wallet one"))
	b := Fingerprint([]byte("wallet two"))

	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("Different inputs share a fingerprint")
	}
	if a != Fingerprint([]byte("wallet one")) {
		t.Error("Fingerprint is not deterministic")
	}
}
